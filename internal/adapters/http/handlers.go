package http

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

const geofenceRejectMessage = "You cannot take multiple surveys in this location within 5 meters."

type registerRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// RegisterHandler creates a user account.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		u, err := deps.Users.Register(c.UserContext(), req.PhoneNumber, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return errConflict(c, "Username already exists.")
			}
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"user_id": u.ID,
			"message": "User registered successfully",
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler checks a username and password.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Username == "" || req.Password == "" {
			return errBadRequest(c, "username and password are required")
		}

		u, err := deps.Users.Login(c.UserContext(), req.Username, req.Password)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"user_id": u.ID,
			"message": "Login successful",
		})
	}
}

type createSurveyRequest struct {
	Name      string            `json:"name"`
	Questions []json.RawMessage `json:"questions"`
}

// CreateSurveyHandler stores a new survey definition.
func CreateSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSurveyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id, err := deps.Surveys.Create(c.UserContext(), req.Name, req.Questions)
		if err != nil {
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":   true,
			"message":   "Survey created successfully",
			"survey_id": id,
		})
	}
}

// ListSurveysHandler returns every survey.
func ListSurveysHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		surveys, err := deps.Surveys.List(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		if surveys == nil {
			surveys = []domain.Survey{}
		}
		return c.JSON(fiber.Map{"surveys": surveys})
	}
}

// GetSurveyHandler returns a single survey by ID.
func GetSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid survey id")
		}

		s, err := deps.Surveys.Get(c.UserContext(), int64(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "Survey not found")
			}
			return writeError(c, err)
		}

		return c.JSON(s)
	}
}

// DeleteSurveyHandler removes a survey and its responses.
func DeleteSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid survey id")
		}

		if err := deps.Surveys.Delete(c.UserContext(), int64(id)); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "Survey not found")
			}
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{"message": "Survey deleted successfully"})
	}
}

// SurveyResponsesHandler returns a page of a survey's responses.
func SurveyResponsesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid survey id")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		f := domain.ResponseFilter{
			SurveyID: int64(id),
			UserID:   int64(c.QueryInt("user_id", 0)),
			Offset:   offset,
			Limit:    limit,
		}
		responses, total, err := deps.Surveys.ListResponses(c.UserContext(), f)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "Survey not found")
			}
			return writeError(c, err)
		}
		if responses == nil {
			responses = []domain.SurveyResponse{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: responses, Pagination: pg})
	}
}

// SurveyReportHandler aggregates a survey's responses.
func SurveyReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid survey id")
		}

		rep, err := deps.Reports.Build(c.UserContext(), int64(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "Survey not found")
			}
			return writeError(c, err)
		}

		return c.JSON(rep)
	}
}

type submitRequest struct {
	UserID             int64           `json:"user_id"`
	SurveyID           int64           `json:"survey_id"`
	Responses          json.RawMessage `json:"responses"`
	Location           json.RawMessage `json:"location"`
	VoiceRecordingPath string          `json:"voice_recording_path"`
}

// SubmitSurveyHandler validates and stores a survey response.
// A geofence rejection is reported with success=false and status 200.
func SubmitSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		loc, err := domain.ParseLocation(req.Location)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		resp, _, err := deps.Submissions.Submit(c.UserContext(), domain.SubmissionInput{
			UserID:             req.UserID,
			SurveyID:           req.SurveyID,
			Responses:          req.Responses,
			Location:           loc,
			VoiceRecordingPath: strings.TrimSpace(req.VoiceRecordingPath),
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrGeofenceRejected):
				return c.JSON(fiber.Map{
					"success": false,
					"message": geofenceRejectMessage,
				})
			case errors.Is(err, domain.ErrNotFound):
				return errNotFound(c, "user or survey not found")
			}
			return writeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":     true,
			"message":     "Survey response submitted successfully",
			"response_id": resp.ID,
		})
	}
}

// UploadHandler stores a voice recording from the multipart field "file".
func UploadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return errBadRequest(c, "file is required")
		}
		if fh.Filename == "" {
			return errBadRequest(c, "no selected file")
		}

		f, err := fh.Open()
		if err != nil {
			return errBadRequest(c, "unreadable file")
		}
		defer f.Close()

		up, err := deps.Uploads.Upload(c.UserContext(), fh.Filename, f)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"file_path": up.FilePath,
			"upload_id": up.ID,
		})
	}
}

// DownloadHandler streams the voice recording attached to a response.
func DownloadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("response_id")
		if err != nil || id <= 0 {
			return errBadRequest(c, "invalid response id")
		}

		rc, size, name, err := deps.Uploads.Download(c.UserContext(), int64(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "File not found")
			}
			return writeError(c, err)
		}

		// fasthttp closes rc once the body is written
		c.Attachment(name)
		return c.SendStream(rc, int(size))
	}
}

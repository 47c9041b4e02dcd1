package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
	"github.com/samirrijal/geosurvey/internal/pkg/geospatial"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/geosurvey/internal/core/usecases")

// SubmissionService validates and stores survey responses.
type SubmissionService struct {
	responses ports.ResponseRepository
	locker    ports.SubmissionLocker
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
// locker and publisher may be nil.
func NewSubmissionService(
	responses ports.ResponseRepository,
	locker ports.SubmissionLocker,
	publisher ports.EventPublisher,
) *SubmissionService {
	return &SubmissionService{
		responses: responses,
		locker:    locker,
		publisher: publisher,
		now:       time.Now,
	}
}

// ValidateSubmission applies the geofence rule: a submission is rejected
// when loc is within domain.GeofenceRadiusKm of the user's previous
// submission. Missing locations on either side never reject.
func (s *SubmissionService) ValidateSubmission(ctx context.Context, userID int64, loc *domain.GeoPoint) (domain.Decision, error) {
	if loc == nil {
		return domain.Accept(), nil
	}

	raw, err := s.responses.LastResponseLocation(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Accept(), nil
		}
		return domain.Decision{}, fmt.Errorf("last response location: %w", err)
	}

	last, err := domain.ParseLocation(raw)
	if err != nil {
		// fail open
		metrics.DecodeErrors.WithLabelValues("location").Inc()
		logging.FromContext(ctx).Warn("undecodable previous location, geofence skipped",
			"user_id", userID, "error", err)
		return domain.Accept(), nil
	}
	if last == nil {
		return domain.Accept(), nil
	}

	d := geospatial.Distance(loc.Latitude, loc.Longitude, last.Latitude, last.Longitude)
	if d < domain.GeofenceRadiusKm {
		logging.FromContext(ctx).Debug("submission inside geofence",
			"user_id", userID,
			"distance_m", geospatial.Haversine(loc.Latitude, loc.Longitude, last.Latitude, last.Longitude))
		return domain.Reject(domain.ReasonTooClose), nil
	}
	return domain.Accept(), nil
}

// Submit validates and stores a response. A geofence rejection returns the
// decision together with domain.ErrGeofenceRejected.
func (s *SubmissionService) Submit(ctx context.Context, in domain.SubmissionInput) (*domain.SurveyResponse, domain.Decision, error) {
	ctx, span := tracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("survey.user_id", in.UserID),
		attribute.Int64("survey.survey_id", in.SurveyID),
		attribute.Bool("survey.has_location", in.Location != nil),
	)

	if err := validateInput(in); err != nil {
		return nil, domain.Decision{}, err
	}

	resp, dec, err := s.submitLocked(ctx, in)
	switch {
	case errors.Is(err, domain.ErrGeofenceRejected):
		metrics.Submissions.WithLabelValues("rejected").Inc()
		span.SetAttributes(attribute.String("survey.decision", "rejected"))
		return nil, dec, err
	case err != nil:
		metrics.Submissions.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, dec, err
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()
	span.SetAttributes(attribute.String("survey.decision", "accepted"))

	if s.publisher != nil {
		event := &domain.ResponseSubmitted{
			ResponseID:  resp.ID,
			SurveyID:    resp.SurveyID,
			UserID:      resp.UserID,
			HasLocation: resp.Location != nil,
			SubmittedAt: resp.CreatedAt,
		}
		if err := s.publisher.PublishResponseSubmitted(ctx, event); err != nil {
			logging.FromContext(ctx).Warn("publish response submitted", "response_id", resp.ID, "error", err)
		}
	}
	return resp, dec, nil
}

func (s *SubmissionService) submitLocked(ctx context.Context, in domain.SubmissionInput) (*domain.SurveyResponse, domain.Decision, error) {
	if s.locker != nil {
		start := time.Now()
		unlock, err := s.locker.Lock(ctx, in.UserID)
		metrics.LockWait.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, domain.Decision{}, fmt.Errorf("acquire submission lock: %w", err)
		}
		defer unlock()
	}

	dec, err := s.ValidateSubmission(ctx, in.UserID, in.Location)
	if err != nil {
		return nil, dec, err
	}
	if !dec.Accepted {
		return nil, dec, domain.ErrGeofenceRejected
	}

	resp := &domain.SurveyResponse{
		UserID:             in.UserID,
		SurveyID:           in.SurveyID,
		Responses:          in.Responses,
		Location:           domain.EncodeLocation(in.Location),
		VoiceRecordingPath: in.VoiceRecordingPath,
		CreatedAt:          s.now().UTC(),
	}
	id, err := s.responses.Create(ctx, resp)
	if err != nil {
		return nil, dec, fmt.Errorf("create response: %w", err)
	}
	resp.ID = id
	return resp, dec, nil
}

func validateInput(in domain.SubmissionInput) error {
	if in.UserID <= 0 {
		return domain.NewValidationError("user_id", "is required")
	}
	if in.SurveyID <= 0 {
		return domain.NewValidationError("survey_id", "is required")
	}
	raw := bytes.TrimSpace(in.Responses)
	if len(raw) == 0 || raw[0] != '{' {
		return domain.NewValidationError("responses", "must be an object")
	}
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answers); err != nil {
		return domain.NewValidationError("responses", "must be an object")
	}
	return nil
}

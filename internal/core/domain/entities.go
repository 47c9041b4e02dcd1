package domain

import (
	"encoding/json"
	"time"
)

// User is a registered survey taker.
type User struct {
	ID           int64     `json:"id"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Survey is a named ordered set of question definitions.
// Each question is kept as opaque JSON so clients control its shape.
type Survey struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Questions []json.RawMessage `json:"questions"`
	CreatedAt time.Time         `json:"created_at"`
}

// SurveyResponse is one user's answers to a survey.
type SurveyResponse struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	SurveyID           int64           `json:"survey_id"`
	Responses          json.RawMessage `json:"responses"`
	Location           json.RawMessage `json:"location,omitempty"`
	VoiceRecordingPath string          `json:"voice_recording_path,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Upload tracks a stored voice recording file.
type Upload struct {
	ID           int64     `json:"id"`
	FilePath     string    `json:"file_path"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubmissionInput carries a decoded submit request.
type SubmissionInput struct {
	UserID             int64
	SurveyID           int64
	Responses          json.RawMessage
	Location           *GeoPoint
	VoiceRecordingPath string
}

// ResponseFilter narrows a response listing.
type ResponseFilter struct {
	SurveyID int64
	UserID   int64 // 0 = any user
	Offset   int
	Limit    int
}

// SurveyReport is the aggregated view of a survey's responses.
type SurveyReport struct {
	SurveyID       int64          `json:"survey_id"`
	SurveyName     string         `json:"survey_name"`
	TotalResponses int            `json:"total_responses"`
	OptionCounts   map[string]int `json:"option_counts"`
	Coordinates    []GeoPoint     `json:"coordinates"`
	DecodeErrors   int            `json:"decode_errors"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

package domain

import "time"

// ResponseSubmitted is published after a response is stored.
type ResponseSubmitted struct {
	ResponseID  int64     `json:"response_id"`
	SurveyID    int64     `json:"survey_id"`
	UserID      int64     `json:"user_id"`
	HasLocation bool      `json:"has_location"`
	SubmittedAt time.Time `json:"submitted_at"`
}

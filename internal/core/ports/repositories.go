package ports

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create stores u and returns its id. Returns domain.ErrConflict when
	// the username is taken.
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// SurveyRepository defines persistence operations for survey definitions.
type SurveyRepository interface {
	Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Survey, error)
	List(ctx context.Context) ([]domain.Survey, error)
	Delete(ctx context.Context, id int64) error
}

// ResponseRepository defines persistence operations for survey responses.
type ResponseRepository interface {
	Create(ctx context.Context, r *domain.SurveyResponse) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.SurveyResponse, error)
	// ListBySurvey returns one page of responses and the total match count.
	// A zero Limit returns every match.
	ListBySurvey(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error)
	// LastResponseLocation returns the raw stored location of the user's
	// newest response. It is nil when that response has no location and
	// domain.ErrNotFound when the user has no responses.
	LastResponseLocation(ctx context.Context, userID int64) (json.RawMessage, error)
}

// UploadRepository defines persistence operations for uploaded files.
type UploadRepository interface {
	Create(ctx context.Context, originalName string) (int64, error)
	Finalize(ctx context.Context, id int64, path string, size int64) error
	GetByID(ctx context.Context, id int64) (*domain.Upload, error)
}

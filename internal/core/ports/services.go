package ports

import (
	"context"
	"io"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishResponseSubmitted(ctx context.Context, event *domain.ResponseSubmitted) error
	PublishReport(ctx context.Context, report *domain.SurveyReport) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeResponseSubmitted(ctx context.Context, handler func(ctx context.Context, event *domain.ResponseSubmitted) error) error
}

// SubmissionLocker serializes submissions of a single user.
type SubmissionLocker interface {
	// Lock blocks until the user's lock is held or ctx is done.
	// The returned function releases it.
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

// FileStore persists uploaded file contents.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, name string) error
}

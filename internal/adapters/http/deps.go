package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geosurvey/internal/adapters/postgres"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
)

// Pinger is a backing service that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Users       *usecases.UserService
	Surveys     *usecases.SurveyService
	Submissions *usecases.SubmissionService
	Reports     *usecases.ReportService
	Uploads     *usecases.UploadService
	NATS        *nats.Conn
	DB          *postgres.DB
	Locker      Pinger
}

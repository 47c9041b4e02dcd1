package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
	"github.com/samirrijal/geosurvey/internal/core/report"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
)

// ReportService aggregates survey responses into reports.
type ReportService struct {
	surveys   ports.SurveyRepository
	responses ports.ResponseRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewReportService creates a new ReportService. publisher may be nil.
func NewReportService(
	surveys ports.SurveyRepository,
	responses ports.ResponseRepository,
	publisher ports.EventPublisher,
) *ReportService {
	return &ReportService{surveys: surveys, responses: responses, publisher: publisher, now: time.Now}
}

// Build loads a survey and all its responses and aggregates them.
// Responses that fail to decode are logged and skipped.
func (s *ReportService) Build(ctx context.Context, surveyID int64) (*domain.SurveyReport, error) {
	ctx, span := tracer.Start(ctx, "ReportService.Build")
	defer span.End()
	span.SetAttributes(attribute.Int64("survey.survey_id", surveyID))

	if surveyID <= 0 {
		return nil, domain.ErrNotFound
	}

	var (
		survey    *domain.Survey
		responses []domain.SurveyResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sv, err := s.surveys.GetByID(gctx, surveyID)
		if err != nil {
			return fmt.Errorf("get survey: %w", err)
		}
		survey = sv
		return nil
	})
	g.Go(func() error {
		rs, _, err := s.responses.ListBySurvey(gctx, domain.ResponseFilter{SurveyID: surveyID})
		if err != nil {
			return fmt.Errorf("list responses: %w", err)
		}
		responses = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep, errs := report.Build(survey, responses, s.now())
	if len(errs) > 0 {
		metrics.DecodeErrors.WithLabelValues("responses").Add(float64(len(errs)))
		log := logging.FromContext(ctx)
		for _, err := range errs {
			log.Warn("skipping response in report", "survey_id", surveyID, "error", err)
		}
	}
	metrics.ReportsBuilt.Inc()
	span.SetAttributes(attribute.Int("survey.total_responses", rep.TotalResponses))
	return &rep, nil
}

// Publish sends a built report to subscribers.
func (s *ReportService) Publish(ctx context.Context, rep *domain.SurveyReport) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishReport(ctx, rep); err != nil {
		return fmt.Errorf("publish report %d: %w", rep.SurveyID, err)
	}
	return nil
}

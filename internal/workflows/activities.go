package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
)

const errTypeSurveyNotFound = "SurveyNotFound"

// ReportActivities holds the activity implementations for the report workflow.
type ReportActivities struct {
	Reports *usecases.ReportService
}

// BuildReport aggregates all responses of a survey.
func (a *ReportActivities) BuildReport(ctx context.Context, surveyID int64) (*domain.SurveyReport, error) {
	rep, err := a.Reports.Build(ctx, surveyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("survey %d not found", surveyID), errTypeSurveyNotFound, err)
		}
		return nil, fmt.Errorf("build report %d: %w", surveyID, err)
	}
	return rep, nil
}

// PublishReport sends a built report to event subscribers.
func (a *ReportActivities) PublishReport(ctx context.Context, rep *domain.SurveyReport) error {
	return a.Reports.Publish(ctx, rep)
}

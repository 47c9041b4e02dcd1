package workflows

import (
	"errors"
	"fmt"
	"time"

	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// TaskQueue is the default queue the reporter worker polls.
const TaskQueue = "survey-reports"

// ReportInput is the input for the survey report workflow.
type ReportInput struct {
	SurveyID   int64
	ResponseID int64 // response that triggered the rebuild, 0 when manual
}

// WorkflowID returns the id for the rebuild triggered by one response.
func WorkflowID(in ReportInput) string {
	return fmt.Sprintf("survey-report-%d-%d", in.SurveyID, in.ResponseID)
}

// StartOptions returns the options for starting the rebuild of in on queue.
// An id that already ran, open or closed, is rejected with
// WorkflowExecutionAlreadyStarted, so a redelivered event never runs twice.
func StartOptions(in ReportInput, queue string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                                       WorkflowID(in),
		TaskQueue:                                queue,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
}

// SurveyReportWorkflow rebuilds a survey's aggregated report and publishes it.
// A survey deleted in the meantime ends the workflow without error.
func SurveyReportWorkflow(ctx workflow.Context, input ReportInput) (*domain.SurveyReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Building survey report", "surveyID", input.SurveyID, "responseID", input.ResponseID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{errTypeSurveyNotFound},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var rep *domain.SurveyReport
	err := workflow.ExecuteActivity(ctx, "BuildReport", input.SurveyID).Get(ctx, &rep)
	if err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == errTypeSurveyNotFound {
			logger.Warn("Survey gone, skipping report", "surveyID", input.SurveyID)
			return nil, nil
		}
		return nil, err
	}

	if err := workflow.ExecuteActivity(ctx, "PublishReport", rep).Get(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Survey report published", "surveyID", input.SurveyID, "responses", rep.TotalResponses)
	return rep, nil
}

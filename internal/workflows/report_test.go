package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
)

type stubSurveys struct {
	survey *domain.Survey
}

func (s *stubSurveys) Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error) {
	return 0, errors.New("not implemented")
}
func (s *stubSurveys) GetByID(ctx context.Context, id int64) (*domain.Survey, error) {
	if s.survey == nil || s.survey.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.survey, nil
}
func (s *stubSurveys) List(ctx context.Context) ([]domain.Survey, error) { return nil, nil }
func (s *stubSurveys) Delete(ctx context.Context, id int64) error       { return nil }

type stubResponses struct {
	rows []domain.SurveyResponse
}

func (s *stubResponses) Create(ctx context.Context, r *domain.SurveyResponse) (int64, error) {
	return 0, errors.New("not implemented")
}
func (s *stubResponses) GetByID(ctx context.Context, id int64) (*domain.SurveyResponse, error) {
	return nil, domain.ErrNotFound
}
func (s *stubResponses) ListBySurvey(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
	return s.rows, len(s.rows), nil
}
func (s *stubResponses) LastResponseLocation(ctx context.Context, userID int64) (json.RawMessage, error) {
	return nil, domain.ErrNotFound
}

type capturePublisher struct {
	reports []*domain.SurveyReport
}

func (p *capturePublisher) PublishResponseSubmitted(ctx context.Context, e *domain.ResponseSubmitted) error {
	return nil
}
func (p *capturePublisher) PublishReport(ctx context.Context, r *domain.SurveyReport) error {
	p.reports = append(p.reports, r)
	return nil
}

type ReportWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *ReportWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(SurveyReportWorkflow)
}

func (s *ReportWorkflowSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *ReportWorkflowSuite) TestBuildsAndPublishes() {
	pub := &capturePublisher{}
	svc := usecases.NewReportService(
		&stubSurveys{survey: &domain.Survey{ID: 3, Name: "Water access"}},
		&stubResponses{rows: []domain.SurveyResponse{
			{ID: 1, Responses: json.RawMessage(`{"q1":"yes"}`)},
			{ID: 2, Responses: json.RawMessage(`{"q1":"no"}`)},
			{ID: 3, Responses: json.RawMessage(`{"q1":"yes"}`)},
		}},
		pub,
	)
	s.env.RegisterActivity(&ReportActivities{Reports: svc})

	s.env.ExecuteWorkflow(SurveyReportWorkflow, ReportInput{SurveyID: 3, ResponseID: 9})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var rep *domain.SurveyReport
	s.NoError(s.env.GetWorkflowResult(&rep))
	s.Require().NotNil(rep)
	s.Equal(map[string]int{"yes": 2, "no": 1}, rep.OptionCounts)
	s.Len(pub.reports, 1)
}

func (s *ReportWorkflowSuite) TestMissingSurveyEndsQuietly() {
	acts := &ReportActivities{}
	s.env.RegisterActivity(acts)
	s.env.OnActivity(acts.BuildReport, mock.Anything, int64(4)).Return(nil,
		temporal.NewNonRetryableApplicationError("survey 4 not found", errTypeSurveyNotFound, domain.ErrNotFound)).Once()

	s.env.ExecuteWorkflow(SurveyReportWorkflow, ReportInput{SurveyID: 4, ResponseID: 1})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ReportWorkflowSuite) TestPublishFailureFailsWorkflow() {
	acts := &ReportActivities{}
	s.env.RegisterActivity(acts)
	s.env.OnActivity(acts.BuildReport, mock.Anything, int64(5)).Return(&domain.SurveyReport{SurveyID: 5}, nil)
	s.env.OnActivity(acts.PublishReport, mock.Anything, mock.Anything).Return(errors.New("nats down"))

	s.env.ExecuteWorkflow(SurveyReportWorkflow, ReportInput{SurveyID: 5})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func TestReportWorkflowSuite(t *testing.T) {
	suite.Run(t, new(ReportWorkflowSuite))
}

func TestBuildReportActivity_NotFoundIsNonRetryable(t *testing.T) {
	svc := usecases.NewReportService(&stubSurveys{}, &stubResponses{}, nil)
	acts := &ReportActivities{Reports: svc}

	_, err := acts.BuildReport(context.Background(), 42)
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errTypeSurveyNotFound, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "survey-report-3-17", WorkflowID(ReportInput{SurveyID: 3, ResponseID: 17}))
}

func TestStartOptions_RejectsReusedID(t *testing.T) {
	opts := StartOptions(ReportInput{SurveyID: 3, ResponseID: 17}, TaskQueue)

	assert.Equal(t, "survey-report-3-17", opts.ID)
	assert.Equal(t, TaskQueue, opts.TaskQueue)
	assert.Equal(t, enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE, opts.WorkflowIDReusePolicy)
	assert.True(t, opts.WorkflowExecutionErrorWhenAlreadyStarted)
}

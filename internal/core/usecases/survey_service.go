package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
)

const (
	defaultResponsePage = 50
	maxResponsePage     = 200
)

// SurveyService handles survey definitions and their responses.
type SurveyService struct {
	surveys   ports.SurveyRepository
	responses ports.ResponseRepository
}

// NewSurveyService creates a new SurveyService.
func NewSurveyService(surveys ports.SurveyRepository, responses ports.ResponseRepository) *SurveyService {
	return &SurveyService{surveys: surveys, responses: responses}
}

// Create stores a new survey and returns its id.
func (s *SurveyService) Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("name", "is required")
	}
	if questions == nil {
		return 0, domain.NewValidationError("questions", "is required")
	}
	for i, q := range questions {
		if !json.Valid(q) {
			return 0, domain.NewValidationError("questions", fmt.Sprintf("question %d is not valid JSON", i))
		}
	}

	id, err := s.surveys.Create(ctx, name, questions)
	if err != nil {
		return 0, fmt.Errorf("create survey: %w", err)
	}
	return id, nil
}

// Get returns a survey by id.
func (s *SurveyService) Get(ctx context.Context, id int64) (*domain.Survey, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.surveys.GetByID(ctx, id)
}

// List returns all surveys.
func (s *SurveyService) List(ctx context.Context) ([]domain.Survey, error) {
	return s.surveys.List(ctx)
}

// Delete removes a survey. Returns domain.ErrNotFound if it does not exist.
func (s *SurveyService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	return s.surveys.Delete(ctx, id)
}

// ListResponses returns a page of a survey's responses and the total count.
func (s *SurveyService) ListResponses(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
	if _, err := s.Get(ctx, f.SurveyID); err != nil {
		return nil, 0, err
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 || f.Limit > maxResponsePage {
		f.Limit = defaultResponsePage
	}
	return s.responses.ListBySurvey(ctx, f)
}

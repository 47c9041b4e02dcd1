package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/usecases"
)

// memSurveyRepo stores surveys as serialized JSON so round trips exercise encoding.
type memSurveyRepo struct {
	rows   map[int64][]byte
	names  map[int64]string
	nextID int64
}

func newMemSurveyRepo() *memSurveyRepo {
	return &memSurveyRepo{rows: map[int64][]byte{}, names: map[int64]string{}}
}

func (m *memSurveyRepo) Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error) {
	b, err := json.Marshal(questions)
	if err != nil {
		return 0, err
	}
	m.nextID++
	m.rows[m.nextID] = b
	m.names[m.nextID] = name
	return m.nextID, nil
}

func (m *memSurveyRepo) GetByID(ctx context.Context, id int64) (*domain.Survey, error) {
	b, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s := &domain.Survey{ID: id, Name: m.names[id]}
	if err := json.Unmarshal(b, &s.Questions); err != nil {
		return nil, &domain.DecodeError{Field: "questions", RecordID: id, Err: err}
	}
	return s, nil
}

func (m *memSurveyRepo) List(ctx context.Context) ([]domain.Survey, error) {
	var out []domain.Survey
	for id := int64(1); id <= m.nextID; id++ {
		if s, err := m.GetByID(ctx, id); err == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSurveyRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestSurveyService_CreateGetRoundTrip(t *testing.T) {
	svc := usecases.NewSurveyService(newMemSurveyRepo(), &mockResponseRepo{})
	ctx := context.Background()

	questions := []json.RawMessage{
		json.RawMessage(`{"text":"Do you have running water?","options":["Yes","No"]}`),
		json.RawMessage(`{"text":"Household size","options":[1,2,3,{"label":"4+","value":4}]}`),
	}
	id, err := svc.Create(ctx, "Water access", questions)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Water access" {
		t.Errorf("expected name Water access, got %s", got.Name)
	}
	if len(got.Questions) != len(questions) {
		t.Fatalf("expected %d questions, got %d", len(questions), len(got.Questions))
	}
	for i := range questions {
		var want, have interface{}
		_ = json.Unmarshal(questions[i], &want)
		_ = json.Unmarshal(got.Questions[i], &have)
		wb, _ := json.Marshal(want)
		hb, _ := json.Marshal(have)
		if string(wb) != string(hb) {
			t.Errorf("question %d changed: want %s, got %s", i, wb, hb)
		}
	}
}

func TestSurveyService_CreateValidation(t *testing.T) {
	svc := usecases.NewSurveyService(newMemSurveyRepo(), &mockResponseRepo{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, " ", []json.RawMessage{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, "x", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("nil questions: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, "x", []json.RawMessage{json.RawMessage(`{bad`)}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("invalid question: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, "empty", []json.RawMessage{}); err != nil {
		t.Errorf("empty question list should be allowed, got %v", err)
	}
}

func TestSurveyService_Delete(t *testing.T) {
	svc := usecases.NewSurveyService(newMemSurveyRepo(), &mockResponseRepo{})
	ctx := context.Background()

	if err := svc.Delete(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing survey, got %v", err)
	}

	id, _ := svc.Create(ctx, "Temp", []json.RawMessage{json.RawMessage(`"q"`)})
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestSurveyService_ListResponses_ClampsPage(t *testing.T) {
	var got domain.ResponseFilter
	responses := &mockResponseRepo{
		listBySurveyFn: func(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
			got = f
			return nil, 0, nil
		},
	}
	svc := usecases.NewSurveyService(&mockSurveyRepo{}, responses)

	if _, _, err := svc.ListResponses(context.Background(), domain.ResponseFilter{SurveyID: 1, Offset: -5, Limit: 5000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Offset != 0 || got.Limit != 50 {
		t.Errorf("expected offset 0 and limit 50, got %+v", got)
	}
}

func TestSurveyService_ListResponses_UnknownSurvey(t *testing.T) {
	surveys := &mockSurveyRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Survey, error) { return nil, domain.ErrNotFound },
	}
	svc := usecases.NewSurveyService(surveys, &mockResponseRepo{})

	if _, _, err := svc.ListResponses(context.Background(), domain.ResponseFilter{SurveyID: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/pkg/logging"
	"github.com/samirrijal/geosurvey/internal/pkg/metrics"
)

// SurveyRepo implements ports.SurveyRepository.
type SurveyRepo struct {
	db *DB
}

func NewSurveyRepo(db *DB) *SurveyRepo {
	return &SurveyRepo{db: db}
}

func (r *SurveyRepo) Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error) {
	if questions == nil {
		questions = []json.RawMessage{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return 0, fmt.Errorf("encode questions: %w", err)
	}

	var id int64
	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO surveys (name, questions) VALUES ($1, $2) RETURNING id
	`, name, string(data)).Scan(&id)
	return id, err
}

func (r *SurveyRepo) GetByID(ctx context.Context, id int64) (*domain.Survey, error) {
	s := &domain.Survey{}
	var questions []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, questions, created_at FROM surveys WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &questions, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if s.Questions, err = decodeQuestions(s.ID, questions); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all surveys by id. Rows with undecodable questions are
// logged and skipped.
func (r *SurveyRepo) List(ctx context.Context) ([]domain.Survey, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, questions, created_at FROM surveys ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []domain.Survey{}
	for rows.Next() {
		var s domain.Survey
		var questions []byte
		if err := rows.Scan(&s.ID, &s.Name, &questions, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.Questions, err = decodeQuestions(s.ID, questions); err != nil {
			metrics.DecodeErrors.WithLabelValues("questions").Inc()
			logging.FromContext(ctx).Warn("skipping survey", slog.Int64("survey_id", s.ID), slog.Any("error", err))
			continue
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

func (r *SurveyRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// decodeQuestions validates that stored questions form a JSON array.
func decodeQuestions(id int64, data []byte) ([]json.RawMessage, error) {
	var questions []json.RawMessage
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, &domain.DecodeError{Field: "questions", RecordID: id, Err: err}
	}
	if questions == nil {
		return nil, &domain.DecodeError{Field: "questions", RecordID: id, Err: errors.New("not an array")}
	}
	return questions, nil
}

package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

var responseColumns = []string{
	"id", "user_id", "survey_id", "responses", "location",
	"COALESCE(voice_recording_path, '')", "created_at",
}

// ResponseRepo implements ports.ResponseRepository.
type ResponseRepo struct {
	db *DB
}

func NewResponseRepo(db *DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

func (r *ResponseRepo) Create(ctx context.Context, resp *domain.SurveyResponse) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO survey_responses (user_id, survey_id, responses, location, voice_recording_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, resp.UserID, resp.SurveyID, string(resp.Responses), nullableJSON(resp.Location),
		nullableText(resp.VoiceRecordingPath)).Scan(&id, &resp.CreatedAt)
	if err != nil {
		if pgErrCode(err) == codeForeignKeyViolation {
			return 0, fmt.Errorf("user %d or survey %d: %w", resp.UserID, resp.SurveyID, domain.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

func (r *ResponseRepo) GetByID(ctx context.Context, id int64) (*domain.SurveyResponse, error) {
	query, args, err := psql.Select(responseColumns...).
		From("survey_responses").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	resp, err := scanResponse(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := validateResponses(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListBySurvey returns stored rows as-is; decoding is left to the caller so
// aggregation can skip bad records.
func (r *ResponseRepo) ListBySurvey(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
	where := sq.Eq{"survey_id": f.SurveyID}
	if f.UserID > 0 {
		where["user_id"] = f.UserID
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("survey_responses").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}
	if total == 0 {
		return []domain.SurveyResponse{}, 0, nil
	}

	q := psql.Select(responseColumns...).From("survey_responses").Where(where).OrderBy("id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.SurveyResponse, 0, min(total, 256))
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *resp)
	}
	return out, total, rows.Err()
}

func (r *ResponseRepo) LastResponseLocation(ctx context.Context, userID int64) (json.RawMessage, error) {
	var loc []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT location FROM survey_responses
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, userID).Scan(&loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(loc) == 0 {
		return nil, nil
	}
	return json.RawMessage(loc), nil
}

func scanResponse(row pgx.Row) (*domain.SurveyResponse, error) {
	var (
		resp      domain.SurveyResponse
		responses []byte
		location  []byte
	)
	if err := row.Scan(&resp.ID, &resp.UserID, &resp.SurveyID, &responses, &location,
		&resp.VoiceRecordingPath, &resp.CreatedAt); err != nil {
		return nil, err
	}
	resp.Responses = json.RawMessage(responses)
	if len(location) > 0 {
		resp.Location = json.RawMessage(location)
	}
	return &resp, nil
}

// validateResponses checks the stored answer map of a single fetched record.
func validateResponses(resp *domain.SurveyResponse) error {
	raw := bytes.TrimSpace(resp.Responses)
	var answers map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answers); err != nil {
		return &domain.DecodeError{Field: "responses", RecordID: resp.ID, Err: err}
	}
	if answers == nil {
		return &domain.DecodeError{Field: "responses", RecordID: resp.ID, Err: errors.New("not an object")}
	}
	return nil
}

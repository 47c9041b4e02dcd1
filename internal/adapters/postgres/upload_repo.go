package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// UploadRepo implements ports.UploadRepository.
type UploadRepo struct {
	db *DB
}

func NewUploadRepo(db *DB) *UploadRepo {
	return &UploadRepo{db: db}
}

// Create reserves an upload id before the file is written.
func (r *UploadRepo) Create(ctx context.Context, originalName string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO uploads (original_name) VALUES ($1) RETURNING id
	`, originalName).Scan(&id)
	return id, err
}

func (r *UploadRepo) Finalize(ctx context.Context, id int64, path string, size int64) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE uploads SET file_path = $2, size_bytes = $3 WHERE id = $1
	`, id, path, size)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UploadRepo) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	u := &domain.Upload{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(file_path, ''), original_name, size_bytes, created_at
		FROM uploads WHERE id = $1
	`, id).Scan(&u.ID, &u.FilePath, &u.OriginalName, &u.Size, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

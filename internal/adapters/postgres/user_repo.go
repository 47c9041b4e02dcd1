package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (phone_number, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, nullableText(u.PhoneNumber), u.Username, u.PasswordHash).Scan(&id, &u.CreatedAt)
	if err != nil {
		if pgErrCode(err) == codeUniqueViolation {
			return 0, fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(phone_number, ''), username, password_hash, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.PhoneNumber, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/geosurvey/internal/core/domain"
	"github.com/samirrijal/geosurvey/internal/core/ports"
)

// UserService handles registration and login.
type UserService struct {
	users    ports.UserRepository
	hashCost int
}

// NewUserService creates a new UserService using the default bcrypt cost.
func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// Register creates a user with a salted password hash.
func (s *UserService) Register(ctx context.Context, phoneNumber, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if len(username) > 64 {
		return nil, domain.NewValidationError("username", "must be at most 64 characters")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}
	// bcrypt ignores bytes past 72
	if len(password) > 72 {
		return nil, domain.NewValidationError("password", "must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		PhoneNumber:  strings.TrimSpace(phoneNumber),
		Username:     username,
		PasswordHash: string(hash),
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

// Login verifies credentials. Unknown users and wrong passwords both
// return domain.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

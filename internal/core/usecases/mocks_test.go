package usecases_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn        func(ctx context.Context, u *domain.User) (int64, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return 1, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, domain.ErrNotFound
}

// memUserRepo enforces unique usernames in memory.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[string]domain.User{}} }

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return 0, domain.ErrConflict
	}
	stored := *u
	stored.ID = int64(len(m.users) + 1)
	m.users[u.Username] = stored
	return stored.ID, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// --- Mock SurveyRepository ---

type mockSurveyRepo struct {
	createFn  func(ctx context.Context, name string, questions []json.RawMessage) (int64, error)
	getByIDFn func(ctx context.Context, id int64) (*domain.Survey, error)
	listFn    func(ctx context.Context) ([]domain.Survey, error)
	deleteFn  func(ctx context.Context, id int64) error
}

func (m *mockSurveyRepo) Create(ctx context.Context, name string, questions []json.RawMessage) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, questions)
	}
	return 1, nil
}

func (m *mockSurveyRepo) GetByID(ctx context.Context, id int64) (*domain.Survey, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Survey{ID: id}, nil
}

func (m *mockSurveyRepo) List(ctx context.Context) ([]domain.Survey, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSurveyRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock ResponseRepository ---

type mockResponseRepo struct {
	createFn       func(ctx context.Context, r *domain.SurveyResponse) (int64, error)
	getByIDFn      func(ctx context.Context, id int64) (*domain.SurveyResponse, error)
	listBySurveyFn func(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error)
	lastLocationFn func(ctx context.Context, userID int64) (json.RawMessage, error)
}

func (m *mockResponseRepo) Create(ctx context.Context, r *domain.SurveyResponse) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return 1, nil
}

func (m *mockResponseRepo) GetByID(ctx context.Context, id int64) (*domain.SurveyResponse, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockResponseRepo) ListBySurvey(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
	if m.listBySurveyFn != nil {
		return m.listBySurveyFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockResponseRepo) LastResponseLocation(ctx context.Context, userID int64) (json.RawMessage, error) {
	if m.lastLocationFn != nil {
		return m.lastLocationFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

// memResponseRepo keeps responses in insertion order.
type memResponseRepo struct {
	mu    sync.Mutex
	items []domain.SurveyResponse
}

func (m *memResponseRepo) Create(ctx context.Context, r *domain.SurveyResponse) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *r
	stored.ID = int64(len(m.items) + 1)
	m.items = append(m.items, stored)
	return stored.ID, nil
}

func (m *memResponseRepo) GetByID(ctx context.Context, id int64) (*domain.SurveyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memResponseRepo) ListBySurvey(ctx context.Context, f domain.ResponseFilter) ([]domain.SurveyResponse, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SurveyResponse
	for _, r := range m.items {
		if r.SurveyID == f.SurveyID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memResponseRepo) LastResponseLocation(ctx context.Context, userID int64) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == userID {
			return m.items[i].Location, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memResponseRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	submitted []domain.ResponseSubmitted
	reports   []domain.SurveyReport
	err       error
}

func (m *mockPublisher) PublishResponseSubmitted(ctx context.Context, e *domain.ResponseSubmitted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, *e)
	return m.err
}

func (m *mockPublisher) PublishReport(ctx context.Context, r *domain.SurveyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *r)
	return m.err
}

// --- Locker ---

// userLocker is a minimal keyed mutex for tests.
type userLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	calls int
}

func (l *userLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[int64]*sync.Mutex{}
	}
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.calls++
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// --- Mock repositories for uploads ---

type mockUploadRepo struct {
	nextID    int64
	finalized map[int64]string
	createErr error
	finalErr  error
}

func (m *mockUploadRepo) Create(ctx context.Context, originalName string) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockUploadRepo) Finalize(ctx context.Context, id int64, path string, size int64) error {
	if m.finalErr != nil {
		return m.finalErr
	}
	if m.finalized == nil {
		m.finalized = map[int64]string{}
	}
	m.finalized[id] = path
	return nil
}

func (m *mockUploadRepo) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	p, ok := m.finalized[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Upload{ID: id, FilePath: p}, nil
}

type memFileStore struct {
	files map[string][]byte
}

func (s *memFileStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = b
	return int64(len(b)), nil
}

func (s *memFileStore) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	b, ok := s.files[name]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (s *memFileStore) Remove(ctx context.Context, name string) error {
	delete(s.files, name)
	return nil
}

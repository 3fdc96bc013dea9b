package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
)

// MemoryStore keeps users and usage records in process memory. It enforces the
// same uniqueness rules as the Mongo repositories and backs tests and the
// "memory" store driver.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]*model.User
	queries   []model.Query
	documents []model.Document
	nextUser  int64
	nextQuery int64
	nextDoc   int64
}

var (
	_ UserRepository  = (*MemoryStore)(nil)
	_ UsageRepository = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]*model.User)}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	if !user.HasPassword() && !user.HasGoogleIdentity() {
		return nil, ErrNoAuthenticationPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		switch {
		case existing.Username == user.Username:
			return nil, ErrDuplicateUsername
		case existing.Email == user.Email:
			return nil, ErrDuplicateEmail
		case user.GoogleID != "" && existing.GoogleID == user.GoogleID:
			return nil, ErrDuplicateGoogleID
		}
	}

	s.nextUser++
	now := time.Now().UTC()
	user.ID = s.nextUser
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[stored.ID] = &stored

	return user, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Username == username })
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *MemoryStore) GetUserByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	if googleID == "" {
		return nil, ErrUserNotFound
	}

	return s.find(func(u *model.User) bool { return u.GoogleID == googleID })
}

func (s *MemoryStore) LinkGoogleIdentity(
	_ context.Context,
	id int64,
	params LinkGoogleIdentityParams,
) (*model.User, error) {
	if params.GoogleID == "" {
		return nil, errors.New("google id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if user.GoogleID == params.GoogleID {
		clone := *user
		return &clone, nil
	}
	if user.GoogleID != "" {
		return nil, ErrGoogleIDAlreadySet
	}
	for _, other := range s.users {
		if other.GoogleID == params.GoogleID {
			return nil, ErrDuplicateGoogleID
		}
	}

	user.GoogleID = params.GoogleID
	if params.Picture != "" {
		user.Picture = params.Picture
	}
	user.UpdatedAt = time.Now().UTC()

	clone := *user
	return &clone, nil
}

func (s *MemoryStore) SetDisabled(_ context.Context, id int64, disabled bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Disabled = disabled
	user.UpdatedAt = time.Now().UTC()

	clone := *user
	return &clone, nil
}

func (s *MemoryStore) CreateQuery(_ context.Context, query *model.Query) (*model.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuery++
	query.ID = s.nextQuery
	query.CreatedAt = time.Now().UTC()
	s.queries = append(s.queries, *query)

	return query, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, document *model.Document) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDoc++
	document.ID = s.nextDoc
	document.CreatedAt = time.Now().UTC()
	s.documents = append(s.documents, *document)

	return document, nil
}

func (s *MemoryStore) ListQueriesByUser(_ context.Context, userID int64) ([]model.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queries := []model.Query{}
	for _, q := range s.queries {
		if q.UserID == userID {
			queries = append(queries, q)
		}
	}

	return queries, nil
}

func (s *MemoryStore) ListDocumentsByUser(_ context.Context, userID int64) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	documents := []model.Document{}
	for _, d := range s.documents {
		if d.UserID == userID {
			documents = append(documents, d)
		}
	}

	return documents, nil
}

// Queries returns a snapshot of the recorded queries.
func (s *MemoryStore) Queries() []model.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Query(nil), s.queries...)
}

// Documents returns a snapshot of the recorded documents.
func (s *MemoryStore) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Document(nil), s.documents...)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}

	return nil, ErrUserNotFound
}

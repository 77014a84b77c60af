package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/classroomhq/auth-service/pkg/id"
)

// MemoryStore is a mutex-guarded Store used by tests and local runs. It
// keeps the same compare-and-swap semantics as the postgres store.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[id.PublicID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[id.PublicID]*User)}
}

func (s *MemoryStore) Create(_ context.Context, input CreateUserInput) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrDuplicateEmail
		}
	}

	s.nextID++
	now := time.Now().UTC()
	u := &User{
		ID:           s.nextID,
		PublicID:     id.New(),
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.PublicID] = u
	return snapshot(u), nil
}

func (s *MemoryStore) FindByID(_ context.Context, publicID id.PublicID) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[publicID]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(u), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return snapshot(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetRefreshToken(_ context.Context, publicID id.PublicID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[publicID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = &token
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) RotateRefreshToken(_ context.Context, publicID id.PublicID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[publicID]
	if !ok {
		return ErrNotFound
	}
	if u.RefreshToken == nil || *u.RefreshToken != presented {
		return ErrRefreshTokenMismatch
	}
	u.RefreshToken = &next
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ClearRefreshToken(_ context.Context, publicID id.PublicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[publicID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = nil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func snapshot(u *User) *User {
	cp := *u
	if u.RefreshToken != nil {
		tok := *u.RefreshToken
		cp.RefreshToken = &tok
	}
	return &cp
}

package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

// UserStore keeps accounts keyed by lower-cased email.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewUserStore returns an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

// CreateUser stores user unless the email is already registered.
func (s *UserStore) CreateUser(_ context.Context, user models.User) error {
	key := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return fmt.Errorf("user %s: %w", user.Email, repository.ErrAlreadyExists)
	}
	s.users[key] = user
	return nil
}

// GetUserByEmail looks up an account.
func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
	}
	return &user, nil
}

// RevocationStore remembers revoked token ids until their deadline passes.
type RevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewRevocationStore returns an empty revocation list.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks tokenID as revoked for ttl.
func (s *RevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, deadline := range s.revoked {
		if now.After(deadline) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not yet expired.
func (s *RevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(deadline) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

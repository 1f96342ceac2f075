package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// SessionStore keeps the current session in a file readable only by the user.
type SessionStore struct {
	Path string
	now  func() time.Time
}

// Load returns the stored session, or nil when there is none or it has expired.
func (s *SessionStore) Load() (*models.Session, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.Path, err)
	}

	if session.Token == "" || (!session.ExpiresAt.IsZero() && !s.clock().Before(session.ExpiresAt)) {
		return nil, nil
	}
	return &session, nil
}

// Save replaces the stored session.
func (s *SessionStore) Save(session *models.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear forgets the stored session.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *SessionStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

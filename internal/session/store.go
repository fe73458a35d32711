package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/studyhub/client/internal/auth"
	"github.com/studyhub/client/internal/models"
)

// Store persists the bearer token and current user between runs, the way
// the web client keeps them in local storage. All reads go through the
// in-memory copy; the file is only touched on Save and Clear.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
	user  *models.User
}

type fileState struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Open loads the session file if it exists
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt session file, start logged out
		return s, nil
	}
	s.token = state.Token
	s.user = state.User
	return s, nil
}

// Save stores the token and user and writes them to disk
func (s *Store) Save(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = user

	data, err := json.Marshal(fileState{Token: token, User: user})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Token returns the stored bearer token. An absent or expired token
// reads back as not logged in.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", false
	}
	claims, err := auth.ParseUnverified(s.token)
	if err != nil {
		return "", false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return "", false
	}
	return s.token, true
}

// CurrentUser returns the stored user, if any
func (s *Store) CurrentUser() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, false
	}
	user := *s.user
	return &user, true
}

// UserID returns the user id embedded in the stored token
func (s *Store) UserID() (int64, bool) {
	token, ok := s.Token()
	if !ok {
		return 0, false
	}
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// Authenticated reports whether a usable token is stored
func (s *Store) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// Clear removes the session, both in memory and on disk
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

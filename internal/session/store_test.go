package session

import (
	"path/filepath"
	"testing"

	"github.com/studyhub/client/internal/auth"
	"github.com/studyhub/client/internal/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return s
}

func TestStore_EmptyIsLoggedOut(t *testing.T) {
	s := tempStore(t)

	if s.Authenticated() {
		t.Fatal("Expected fresh store to be logged out")
	}
	if _, ok := s.Token(); ok {
		t.Fatal("Expected no token")
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	token, err := auth.NewJWTService("test-secret", 24).GenerateToken(7, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	user := &models.User{ID: 7, Email: "a@example.com", FirstName: "Ada"}
	if err := s.Save(token, user); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open (reload) error: %v", err)
	}
	if !reloaded.Authenticated() {
		t.Fatal("Expected reloaded store to be authenticated")
	}
	if id, ok := reloaded.UserID(); !ok || id != 7 {
		t.Errorf("Expected user id 7, got %d (ok=%v)", id, ok)
	}
	if u, ok := reloaded.CurrentUser(); !ok || u.FirstName != "Ada" {
		t.Errorf("Unexpected user: %+v", u)
	}
}

func TestStore_ExpiredTokenReadsAsLoggedOut(t *testing.T) {
	s := tempStore(t)

	token, err := auth.NewJWTService("test-secret", -1).GenerateToken(7, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if err := s.Save(token, nil); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if s.Authenticated() {
		t.Fatal("Expected expired token to read as logged out")
	}
}

func TestStore_Clear(t *testing.T) {
	s := tempStore(t)

	token, err := auth.NewJWTService("test-secret", 24).GenerateToken(7, "a@example.com")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if err := s.Save(token, nil); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("Expected cleared store to be logged out")
	}
	// Clearing twice is a no-op
	if err := s.Clear(); err != nil {
		t.Fatalf("Second Clear error: %v", err)
	}
}

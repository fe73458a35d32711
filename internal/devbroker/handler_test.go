package devbroker

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/studyhub/client/internal/auth"
)

func TestMatchOrigin(t *testing.T) {
	cases := []struct {
		pattern string
		origin  string
		want    bool
	}{
		{"http://localhost:3000", "http://localhost:3000", true},
		{"http://localhost:3000", "http://evil.example.com", false},
		{"*.example.com", "https://app.example.com", true},
		{"*.example.com", "https://example.org", false},
	}
	for _, c := range cases {
		if got := matchOrigin(c.pattern, c.origin); got != c.want {
			t.Errorf("matchOrigin(%q, %q) = %v, want %v", c.pattern, c.origin, got, c.want)
		}
	}
}

func TestWebSocketOriginCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := NewStore()
	jwtService := auth.NewJWTService("test-secret", 1)
	hub := NewHub(store, nil)
	go hub.Run()

	router := gin.New()
	NewHandler(hub, store, jwtService, 100, []string{"http://localhost:3000"}).Routes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	user, err := store.CreateUser("Alice", "Anders", "alice@example.com", "unused-hash")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	token, err := jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	dial := func(origin string) (*websocket.Conn, error) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		if resp != nil {
			resp.Body.Close()
		}
		return conn, err
	}

	// No Origin header: non-browser client, accepted
	if conn, err := dial(""); err != nil {
		t.Errorf("Expected handshake without Origin to succeed, got %v", err)
	} else {
		conn.Close()
	}

	// Allowed browser origin
	if conn, err := dial("http://localhost:3000"); err != nil {
		t.Errorf("Expected allowed origin to succeed, got %v", err)
	} else {
		conn.Close()
	}

	// Disallowed browser origin
	if conn, err := dial("http://evil.example.com"); err == nil {
		conn.Close()
		t.Error("Expected handshake from a disallowed origin to fail")
	}
}

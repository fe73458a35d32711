package devbroker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/studyhub/client/internal/models"
)

func TestCreateUserAssignsIDs(t *testing.T) {
	s := NewStore()

	alice, err := s.CreateUser("Alice", "Anders", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	bob, err := s.CreateUser("Bob", "Brown", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if alice.ID == bob.ID {
		t.Errorf("Expected distinct ids, got %d and %d", alice.ID, bob.ID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := NewStore()

	if _, err := s.CreateUser("Alice", "Anders", "alice@example.com", "hash"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	_, err := s.CreateUser("Other", "Alice", "alice@example.com", "hash")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	s := NewStore()
	s.CreateUser("Alice", "Anders", "alice@example.com", "hash")
	s.CreateUser("Bob", "Brown", "bob@example.com", "hash")
	s.CreateUser("Alicia", "Keys", "keys@example.com", "hash")

	users := s.SearchUsers("ali")
	if len(users) != 2 {
		t.Fatalf("Expected 2 matches for 'ali', got %d", len(users))
	}
	if users[0].ID > users[1].ID {
		t.Error("Expected results sorted by id")
	}
}

func TestHistoryFiltersAndLimits(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.AddMessage(models.ChatMessage{
			ID: fmt.Sprintf("m%d", i), SenderID: 1, RecipientID: 2,
			Content: fmt.Sprintf("msg %d", i),
		})
	}
	// Other conversations and group chatter are excluded
	s.AddMessage(models.ChatMessage{ID: "other", SenderID: 1, RecipientID: 3, Content: "not for 2"})
	s.AddMessage(models.ChatMessage{ID: "group", SenderID: 1, StudyGroupID: 9, Content: "group"})

	history := s.History(2, 1, 3)
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(history))
	}
	if history[0].ID != "m2" || history[2].ID != "m4" {
		t.Errorf("Expected the newest 3 in order, got %+v", history)
	}
}

func TestNotificationPaging(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.AddNotification(1, "NEW_MESSAGE", "New message", fmt.Sprintf("msg %d", i))
	}

	first := s.Notifications(1, 0, 2)
	if len(first) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(first))
	}
	if first[0].Message != "msg 4" {
		t.Errorf("Expected newest first, got %q", first[0].Message)
	}

	last := s.Notifications(1, 2, 2)
	if len(last) != 1 {
		t.Errorf("Expected 1 notification on the last page, got %d", len(last))
	}
	if s.Notifications(1, 3, 2) != nil {
		t.Error("Expected nil past the last page")
	}
}

func TestMarkReadBookkeeping(t *testing.T) {
	s := NewStore()
	n := s.AddNotification(1, "NEW_MESSAGE", "New message", "hello")
	s.AddNotification(1, "NEW_MESSAGE", "New message", "again")

	if s.UnreadCount(1) != 2 {
		t.Fatalf("Expected 2 unread, got %d", s.UnreadCount(1))
	}
	if !s.MarkRead(1, n.ID) {
		t.Fatal("Expected MarkRead to find the notification")
	}
	if s.UnreadCount(1) != 1 {
		t.Errorf("Expected 1 unread, got %d", s.UnreadCount(1))
	}
	if s.MarkRead(1, "missing") {
		t.Error("Expected MarkRead to report a missing id")
	}

	s.MarkAllRead(1)
	if s.UnreadCount(1) != 0 {
		t.Errorf("Expected 0 unread after MarkAllRead, got %d", s.UnreadCount(1))
	}
}

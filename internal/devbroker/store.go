package devbroker

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/client/internal/models"
)

var ErrEmailTaken = errors.New("devbroker: email already registered")

// Account pairs a user with their password hash
type Account struct {
	User         models.User
	PasswordHash string
}

// Store is the broker's in-memory state: accounts, chat history and
// notifications. It exists so the client has something real to talk to in
// development and tests; nothing here survives a restart.
type Store struct {
	mu            sync.RWMutex
	nextUserID    int64
	accounts      map[string]*Account // keyed by email
	messages      []models.ChatMessage
	notifications map[int64][]models.Notification
}

func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]*Account),
		notifications: make(map[int64][]models.Notification),
	}
}

// CreateUser registers a new account
func (s *Store) CreateUser(firstName, lastName, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return nil, ErrEmailTaken
	}
	s.nextUserID++
	account := &Account{
		User: models.User{
			ID:        s.nextUserID,
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
		},
		PasswordHash: passwordHash,
	}
	s.accounts[email] = account
	user := account.User
	return &user, nil
}

// AccountByEmail looks up an account for login
func (s *Store) AccountByEmail(email string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[email]
	if !ok {
		return nil, false
	}
	copied := *account
	return &copied, true
}

// User looks up a user by id
func (s *Store) User(userID int64) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.User.ID == userID {
			user := account.User
			return &user, true
		}
	}
	return nil, false
}

// SearchUsers matches names and emails case-insensitively
func (s *Store) SearchUsers(query string) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var users []models.User
	for _, account := range s.accounts {
		u := account.User
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// AddMessage appends a chat message to history
func (s *Store) AddMessage(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// History returns the private conversation between two users, oldest first
func (s *Store) History(userA, userB int64, limit int) []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var msgs []models.ChatMessage
	for _, m := range s.messages {
		if m.StudyGroupID != 0 {
			continue
		}
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			msgs = append(msgs, m)
		}
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

// AddNotification records a notification for a user and returns it
func (s *Store) AddNotification(userID int64, kind, title, message string) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.notifications[userID] = append([]models.Notification{n}, s.notifications[userID]...)
	return n
}

// Notifications returns a page of a user's notifications, newest first
func (s *Store) Notifications(userID int64, page, size int) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.notifications[userID]
	if size <= 0 {
		size = 20
	}
	start := page * size
	if start >= len(all) {
		return nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	out := make([]models.Notification, end-start)
	copy(out, all[start:end])
	return out
}

// UnreadCount returns the number of unread notifications for a user
func (s *Store) UnreadCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead marks one notification as read
func (s *Store) MarkRead(userID int64, notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications[userID] {
		if n.ID == notificationID {
			s.notifications[userID][i].IsRead = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification for the user as read
func (s *Store) MarkAllRead(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications[userID] {
		s.notifications[userID][i].IsRead = true
	}
}

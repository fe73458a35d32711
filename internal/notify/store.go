package notify

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/studyhub/client/internal/models"
	"github.com/studyhub/client/internal/realtime"
)

// Backend is the slice of the REST client the store needs
type Backend interface {
	Notifications(page, size int) ([]models.Notification, error)
	UnreadCount() (int, error)
	MarkNotificationRead(notificationID string) error
	MarkAllNotificationsRead() error
}

// EventSource delivers realtime events; satisfied by *realtime.Client
type EventSource interface {
	On(event models.EventType, fn realtime.HandlerFunc) *realtime.Registration
}

// Store keeps the notification list and unread count the UI shows. It
// loads history over REST and stays current by listening for
// NEW_NOTIFICATION events on the realtime client.
type Store struct {
	backend Backend

	mu            sync.RWMutex
	notifications []models.Notification
	unread        int
	listeners     map[int]func()
	nextListener  int

	reg *realtime.Registration
}

// NewStore creates a notification store
func NewStore(backend Backend) *Store {
	return &Store{
		backend:   backend,
		listeners: make(map[int]func()),
	}
}

// Attach subscribes the store to NEW_NOTIFICATION events. Detach releases
// the registration.
func (s *Store) Attach(src EventSource) {
	s.Detach()
	s.reg = src.On(models.EventNewNotification, func(data json.RawMessage) {
		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			log.Printf("notify: dropping malformed notification: %v", err)
			return
		}
		s.mu.Lock()
		s.notifications = append([]models.Notification{n}, s.notifications...)
		s.unread++
		s.mu.Unlock()
		s.changed()
	})
}

// Detach unregisters the realtime handler
func (s *Store) Detach() {
	if s.reg != nil {
		s.reg.Off()
		s.reg = nil
	}
}

// Load fetches the first page of notifications and the unread count
func (s *Store) Load() error {
	notifications, err := s.backend.Notifications(0, 20)
	if err != nil {
		return err
	}
	unread, err := s.backend.UnreadCount()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.notifications = notifications
	s.unread = unread
	s.mu.Unlock()
	s.changed()
	return nil
}

// Notifications returns a copy of the current list, newest first
func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the current unread count
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// MarkRead marks one notification as read, remotely and locally
func (s *Store) MarkRead(notificationID string) error {
	if err := s.backend.MarkNotificationRead(notificationID); err != nil {
		return err
	}

	s.mu.Lock()
	for i, n := range s.notifications {
		if n.ID == notificationID && !n.IsRead {
			s.notifications[i].IsRead = true
			if s.unread > 0 {
				s.unread--
			}
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

// MarkAllRead marks every notification as read, remotely and locally
func (s *Store) MarkAllRead() error {
	if err := s.backend.MarkAllNotificationsRead(); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
	s.unread = 0
	s.mu.Unlock()
	s.changed()
	return nil
}

// OnChange registers a listener invoked after every state change. The
// returned function removes it.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) changed() {
	s.mu.RLock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

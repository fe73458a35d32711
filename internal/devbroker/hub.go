package devbroker

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/client/internal/cache"
	"github.com/studyhub/client/internal/models"
)

// Hub maintains the set of active sessions and routes frames between them
type Hub struct {
	// Registered sessions, one per user
	sessions map[int64]*Session

	// Register requests from sessions
	register chan *Session

	// Unregister requests from sessions
	unregister chan *Session

	// Persistent broker state
	store *Store

	// Optional Redis client for shared presence
	redis *cache.RedisClient

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new Hub. redis may be nil.
func NewHub(store *Store, redis *cache.RedisClient) *Hub {
	return &Hub{
		sessions:   make(map[int64]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		store:      store,
		redis:      redis,
	}
}

// Run starts the hub loop
func (h *Hub) Run() {
	if h.redis != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case session := <-h.register:
			h.mu.Lock()
			h.sessions[session.userID] = session
			h.mu.Unlock()

			if h.redis != nil {
				if err := h.redis.SetUserOnline(session.userID); err != nil {
					log.Printf("devbroker: redis presence update failed: %v", err)
				}
			}
			h.publishPresence(models.UserStatus{
				UserID:   session.userID,
				Status:   models.StatusOnline,
				LastSeen: session.connectedAt,
			})

			log.Printf("devbroker: session registered: user %d", session.userID)

		case session := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.sessions[session.userID]; ok && current == session {
				delete(h.sessions, session.userID)
				close(session.send)
			}
			h.mu.Unlock()

			if h.redis != nil {
				if err := h.redis.SetUserOffline(session.userID); err != nil {
					log.Printf("devbroker: redis presence update failed: %v", err)
				}
			}
			h.publishPresence(models.UserStatus{
				UserID:   session.userID,
				Status:   models.StatusOffline,
				LastSeen: time.Now(),
			})

			log.Printf("devbroker: session unregistered: user %d", session.userID)
		}
	}
}

// HandleSend routes a SEND frame from a session to its destination
func (h *Hub) HandleSend(s *Session, env models.Envelope) {
	switch env.Destination {
	case models.DestSendMessage:
		h.handleChatMessage(s, env.Body)

	case models.DestSendTyping:
		h.handleTyping(s, env.Body)

	default:
		s.sendError("Unknown destination")
	}
}

func (h *Hub) handleChatMessage(s *Session, body json.RawMessage) {
	var payload models.SendMessagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.sendError("Invalid message payload")
		return
	}
	if payload.Content == "" {
		s.sendError("Empty message")
		return
	}
	if payload.MessageType == "" {
		payload.MessageType = models.MessageTypeText
	}

	senderName := s.email
	if user, ok := h.store.User(s.userID); ok {
		senderName = user.FirstName + " " + user.LastName
	}

	msg := models.ChatMessage{
		ID:           uuid.NewString(),
		SenderID:     s.userID,
		SenderName:   senderName,
		RecipientID:  payload.RecipientID,
		StudyGroupID: payload.StudyGroupID,
		Content:      payload.Content,
		MessageType:  payload.MessageType,
		SentAt:       time.Now(),
	}
	h.DeliverMessage(msg)
}

// DeliverMessage records a chat message and routes it to its readers. The
// REST fallback endpoint funnels through here too, so socket and REST
// sends behave identically.
func (h *Hub) DeliverMessage(msg models.ChatMessage) {
	h.store.AddMessage(msg)

	if msg.StudyGroupID != 0 {
		h.broadcastTopic(models.GroupTopic(msg.StudyGroupID), msg)
		return
	}

	h.sendToUser(msg.RecipientID, models.DestPrivateMessages, msg)

	notification := h.store.AddNotification(msg.RecipientID, "NEW_MESSAGE",
		"New message", fmt.Sprintf("%s sent you a message", msg.SenderName))
	h.sendToUser(msg.RecipientID, models.DestNotifications, notification)
}

func (h *Hub) handleTyping(s *Session, body json.RawMessage) {
	var payload models.TypingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.sendError("Invalid typing payload")
		return
	}
	payload.SenderID = s.userID

	if payload.StudyGroupID != 0 {
		h.broadcastTopicSubscribers(models.GroupTopic(payload.StudyGroupID), models.DestTyping, payload, s.userID)
		return
	}
	h.sendToUser(payload.RecipientID, models.DestTyping, payload)
}

func (h *Hub) publishPresence(presence models.UserStatus) {
	if h.redis != nil {
		if err := h.redis.PublishPresence(presence); err != nil {
			log.Printf("devbroker: presence publish failed: %v", err)
		}
		return
	}
	h.broadcastTopic(models.DestUserStatus, presence)
}

// subscribeToRedis rebroadcasts presence updates published by any broker
// instance to the local sessions
func (h *Hub) subscribeToRedis() {
	pubsub := h.redis.SubscribeToPresence()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var presence models.UserStatus
		if err := json.Unmarshal([]byte(msg.Payload), &presence); err != nil {
			continue
		}
		h.broadcastTopic(models.DestUserStatus, presence)
	}
}

// sendToUser delivers a body to one user's subscription on a destination
func (h *Hub) sendToUser(userID int64, destination string, body interface{}) {
	h.mu.RLock()
	session, ok := h.sessions[userID]
	h.mu.RUnlock()

	if ok {
		session.deliver(destination, body)
	}
}

// broadcastTopic delivers a body to every session subscribed to the topic
func (h *Hub) broadcastTopic(topic string, body interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, session := range h.sessions {
		session.deliver(topic, body)
	}
}

// broadcastTopicSubscribers delivers a body on deliverDest to every
// session subscribed to topic, except the sender
func (h *Hub) broadcastTopicSubscribers(topic, deliverDest string, body interface{}, exceptUserID int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, session := range h.sessions {
		if session.userID == exceptUserID {
			continue
		}
		if session.subscribed(topic) {
			session.deliver(deliverDest, body)
		}
	}
}

// OnlineUsers returns the ids of users with a live session
func (h *Hub) OnlineUsers() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]int64, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// IsUserOnline checks if a user has a live session
func (h *Hub) IsUserOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.sessions[userID]
	return ok
}

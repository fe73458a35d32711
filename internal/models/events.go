package models

import "time"

// EventType classifies a decoded inbound frame for local dispatch. It is
// not a wire concept; the mapping from destination to event happens in the
// realtime client after decoding.
type EventType string

const (
	EventNewMessage      EventType = "NEW_MESSAGE"
	EventNewNotification EventType = "NEW_NOTIFICATION"
	EventUserStatus      EventType = "USER_STATUS"
	EventTypingIndicator EventType = "TYPING_INDICATOR"
)

// Chat message content kinds
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeFile  = "FILE"
)

// User presence states
const (
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

type ChatMessage struct {
	ID           string    `json:"id"`
	SenderID     int64     `json:"senderId"`
	SenderName   string    `json:"senderName,omitempty"`
	RecipientID  int64     `json:"recipientId,omitempty"`
	StudyGroupID int64     `json:"studyGroupId,omitempty"`
	Content      string    `json:"content"`
	MessageType  string    `json:"messageType"`
	SentAt       time.Time `json:"sentAt"`
}

// SendMessagePayload is the body published to /app/chat.sendMessage.
// Exactly one of RecipientID or StudyGroupID is set.
type SendMessagePayload struct {
	RecipientID  int64  `json:"recipientId,omitempty"`
	StudyGroupID int64  `json:"studyGroupId,omitempty"`
	Content      string `json:"content"`
	MessageType  string `json:"messageType"`
}

// TypingPayload is the body published to /app/chat.typing and delivered
// on /user/queue/typing. SenderID is filled in by the broker.
type TypingPayload struct {
	RecipientID  int64 `json:"recipientId,omitempty"`
	StudyGroupID int64 `json:"studyGroupId,omitempty"`
	SenderID     int64 `json:"senderId,omitempty"`
	IsTyping     bool  `json:"isTyping"`
}

type UserStatus struct {
	UserID   int64     `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

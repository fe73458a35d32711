package models

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged with the broker
const (
	FrameSubscribe   = "SUBSCRIBE"
	FrameUnsubscribe = "UNSUBSCRIBE"
	FrameSend        = "SEND"
	FrameMessage     = "MESSAGE"
	FrameError       = "ERROR"
)

// Default destinations the client subscribes to after every connect
const (
	DestPrivateMessages = "/user/queue/messages"
	DestNotifications   = "/user/queue/notifications"
	DestUserStatus      = "/topic/user-status"
	DestTyping          = "/user/queue/typing"
)

// Application destinations for outbound publishes
const (
	DestSendMessage = "/app/chat.sendMessage"
	DestSendTyping  = "/app/chat.typing"
)

// Envelope is the single frame format on the WebSocket: one JSON object
// per text frame, in both directions.
type Envelope struct {
	Type        string          `json:"type"`
	ID          string          `json:"id,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// GroupTopic returns the broker topic for a study group's chat
func GroupTopic(groupID int64) string {
	return fmt.Sprintf("/topic/group/%d", groupID)
}

package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/studyhub/client/internal/models"
)

// Outbound sends are fire-and-forget: a nil error means "handed to the
// transport", not "delivered". Callers fall back to the REST API when a
// send fails.

// SendPrivateMessage publishes a direct chat message to another user.
// An empty messageType defaults to TEXT.
func (c *Client) SendPrivateMessage(recipientID int64, content, messageType string) error {
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	return c.publish(models.DestSendMessage, models.SendMessagePayload{
		RecipientID: recipientID,
		Content:     content,
		MessageType: messageType,
	})
}

// SendGroupMessage publishes a chat message to a study group
func (c *Client) SendGroupMessage(studyGroupID int64, content, messageType string) error {
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	return c.publish(models.DestSendMessage, models.SendMessagePayload{
		StudyGroupID: studyGroupID,
		Content:      content,
		MessageType:  messageType,
	})
}

// SendTypingIndicator signals typing state to a user or group. Typing
// signals are best-effort: they are throttled, never retried, and dropped
// silently while disconnected.
func (c *Client) SendTypingIndicator(recipientID, studyGroupID int64, isTyping bool) {
	if !c.IsConnected() {
		return
	}
	if !c.typing.Allow() {
		return
	}
	_ = c.publish(models.DestSendTyping, models.TypingPayload{
		RecipientID:  recipientID,
		StudyGroupID: studyGroupID,
		IsTyping:     isTyping,
	})
}

func (c *Client) publish(destination string, body interface{}) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.State() == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := c.write(conn, models.Envelope{
		Type:        models.FrameSend,
		Destination: destination,
		Body:        raw,
	}); err != nil {
		return fmt.Errorf("realtime: publish to %s: %w", destination, err)
	}
	return nil
}

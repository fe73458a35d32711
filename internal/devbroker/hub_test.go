package devbroker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studyhub/client/internal/models"
)

// testSession builds a session without a real connection; only the send
// channel and subscription set matter for routing assertions
func testSession(userID int64, destinations ...string) *Session {
	s := &Session{
		send:   make(chan []byte, 8),
		userID: userID,
		subs:   make(map[string]string),
	}
	for _, dest := range destinations {
		s.subs[dest] = uuid.NewString()
	}
	return s
}

func testHub(sessions ...*Session) *Hub {
	h := NewHub(NewStore(), nil)
	for _, s := range sessions {
		s.hub = h
		h.sessions[s.userID] = s
	}
	return h
}

func readFrame(t *testing.T, s *Session) models.Envelope {
	t.Helper()
	select {
	case data := <-s.send:
		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		return env
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for frame")
		return models.Envelope{}
	}
}

func assertNoFrame(t *testing.T, s *Session) {
	t.Helper()
	select {
	case data := <-s.send:
		t.Fatalf("Expected no frame, got %s", data)
	default:
	}
}

func TestDeliverPrivateMessage(t *testing.T) {
	alice := testSession(1, models.DestPrivateMessages, models.DestNotifications)
	bob := testSession(2, models.DestPrivateMessages, models.DestNotifications)
	h := testHub(alice, bob)

	h.DeliverMessage(models.ChatMessage{
		ID: "m1", SenderID: 2, SenderName: "Bob Brown", RecipientID: 1,
		Content: "hello", MessageType: models.MessageTypeText,
	})

	env := readFrame(t, alice)
	if env.Type != models.FrameMessage || env.Destination != models.DestPrivateMessages {
		t.Fatalf("Expected MESSAGE on %s, got %s on %s", models.DestPrivateMessages, env.Type, env.Destination)
	}
	var msg models.ChatMessage
	if err := json.Unmarshal(env.Body, &msg); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if msg.Content != "hello" {
		t.Errorf("Expected content 'hello', got %q", msg.Content)
	}

	// The recipient also gets a notification, and it is recorded
	env = readFrame(t, alice)
	if env.Destination != models.DestNotifications {
		t.Errorf("Expected notification frame, got %s", env.Destination)
	}
	if h.store.UnreadCount(1) != 1 {
		t.Errorf("Expected 1 unread notification, got %d", h.store.UnreadCount(1))
	}

	// The sender gets nothing back
	assertNoFrame(t, bob)

	if len(h.store.History(1, 2, 0)) != 1 {
		t.Error("Expected the message to be recorded in history")
	}
}

func TestDeliverGroupMessage(t *testing.T) {
	topic := models.GroupTopic(9)
	alice := testSession(1, topic)
	bob := testSession(2, topic)
	carol := testSession(3, models.DestPrivateMessages)
	h := testHub(alice, bob, carol)

	h.DeliverMessage(models.ChatMessage{
		ID: "m1", SenderID: 2, StudyGroupID: 9, Content: "study time",
	})

	for _, s := range []*Session{alice, bob} {
		env := readFrame(t, s)
		if env.Destination != topic {
			t.Errorf("Expected frame on %s, got %s", topic, env.Destination)
		}
	}
	assertNoFrame(t, carol)
}

func TestTypingExcludesSender(t *testing.T) {
	topic := models.GroupTopic(9)
	alice := testSession(1, topic, models.DestTyping)
	bob := testSession(2, topic, models.DestTyping)
	h := testHub(alice, bob)

	body, _ := json.Marshal(models.TypingPayload{StudyGroupID: 9, IsTyping: true})
	h.HandleSend(bob, models.Envelope{
		Type:        models.FrameSend,
		Destination: models.DestSendTyping,
		Body:        body,
	})

	env := readFrame(t, alice)
	if env.Destination != models.DestTyping {
		t.Fatalf("Expected typing frame, got %s", env.Destination)
	}
	var payload models.TypingPayload
	if err := json.Unmarshal(env.Body, &payload); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if payload.SenderID != 2 {
		t.Errorf("Expected sender id 2, got %d", payload.SenderID)
	}

	assertNoFrame(t, bob)
}

func TestPrivateTypingGoesToRecipient(t *testing.T) {
	alice := testSession(1, models.DestTyping)
	bob := testSession(2, models.DestTyping)
	h := testHub(alice, bob)

	body, _ := json.Marshal(models.TypingPayload{RecipientID: 1, IsTyping: true})
	h.HandleSend(bob, models.Envelope{
		Type:        models.FrameSend,
		Destination: models.DestSendTyping,
		Body:        body,
	})

	env := readFrame(t, alice)
	if env.Destination != models.DestTyping {
		t.Errorf("Expected typing frame, got %s", env.Destination)
	}
	assertNoFrame(t, bob)
}

func TestUnknownDestinationRepliesWithError(t *testing.T) {
	bob := testSession(2)
	h := testHub(bob)

	h.HandleSend(bob, models.Envelope{
		Type:        models.FrameSend,
		Destination: "/app/unknown",
	})

	env := readFrame(t, bob)
	if env.Type != models.FrameError {
		t.Errorf("Expected ERROR frame, got %s", env.Type)
	}
}

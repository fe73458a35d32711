package devbroker

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/studyhub/client/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 10240 // 10KB
)

// Session is one connected client
type Session struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	userID      int64
	email       string
	connectedAt time.Time

	mu   sync.RWMutex
	subs map[string]string // destination -> subscription id

	limiter *rate.Limiter
}

// NewSession creates a session for an upgraded connection
func NewSession(hub *Hub, conn *websocket.Conn, userID int64, email string, messagesPerSecond int) *Session {
	if messagesPerSecond <= 0 {
		messagesPerSecond = 10
	}
	return &Session{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		userID:      userID,
		email:       email,
		connectedAt: time.Now(),
		subs:        make(map[string]string),
		limiter:     rate.NewLimiter(rate.Limit(messagesPerSecond), messagesPerSecond*2),
	}
}

func (s *Session) subscribed(destination string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subs[destination]
	return ok
}

func (s *Session) subscribe(destination, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[destination] = id
}

func (s *Session) unsubscribe(destination, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		for dest, subID := range s.subs {
			if subID == id {
				delete(s.subs, dest)
				return
			}
		}
		return
	}
	delete(s.subs, destination)
}

// deliver queues a MESSAGE envelope for the session if it holds a
// subscription to the destination
func (s *Session) deliver(destination string, body interface{}) {
	if !s.subscribed(destination) {
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	data, err := json.Marshal(models.Envelope{
		Type:        models.FrameMessage,
		Destination: destination,
		Body:        raw,
	})
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
		// Session's send buffer is full, drop the frame
	}
}

// ReadPump pumps frames from the connection into the hub
func (s *Session) ReadPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("devbroker: read error: %v", err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError("Invalid frame format")
			continue
		}

		switch env.Type {
		case models.FrameSubscribe:
			s.subscribe(env.Destination, env.ID)

		case models.FrameUnsubscribe:
			s.unsubscribe(env.Destination, env.ID)

		case models.FrameSend:
			if !s.limiter.Allow() {
				s.sendError("rate_limited")
				continue
			}
			s.hub.HandleSend(s, env)

		default:
			s.sendError("Unknown frame type")
		}
	}
}

// WritePump pumps queued envelopes to the connection
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One envelope per frame; the client decodes frames
			// individually
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError sends an error envelope to the session
func (s *Session) sendError(message string) {
	raw, _ := json.Marshal(map[string]string{"message": message})
	data, _ := json.Marshal(models.Envelope{
		Type: models.FrameError,
		Body: raw,
	})
	select {
	case s.send <- data:
	default:
	}
}

package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/studyhub/client/internal/models"
)

var (
	// ErrNotConnected is returned by send and subscribe operations while
	// the connection is not established. Callers treat it as a signal to
	// fall back to the REST API.
	ErrNotConnected = errors.New("realtime: not connected")
)

const (
	// Time allowed to write a message to the broker
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the broker
	pongWait = 60 * time.Second

	// Maximum inbound frame size
	maxMessageSize = 10240 // 10KB
)

// CredentialSource supplies the bearer token attached to the connection
// handshake. A missing token means "not logged in" and prevents connecting
// without being an error.
type CredentialSource interface {
	Token() (string, bool)
}

// Options configures a Client. Zero values fall back to the defaults the
// UI layer was tuned against.
type Options struct {
	BrokerURL            string
	HeartbeatInterval    time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	TypingPerSecond      int
}

func (o *Options) withDefaults() {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 4 * time.Second
	}
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = 3 * time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.TypingPerSecond <= 0 {
		o.TypingPerSecond = 4
	}
}

// Client owns the single broker connection: handshake, heartbeat,
// subscription bookkeeping, dispatch of inbound frames and reconnection.
// Construct one per process and pass it to consumers; there is no package
// singleton.
type Client struct {
	opts   Options
	creds  CredentialSource
	dialer *websocket.Dialer

	mu                sync.Mutex // guards conn, generation, reconnect bookkeeping
	conn              *websocket.Conn
	gen               int
	reconnectAttempts int
	reconnectTimer    *time.Timer

	state atomic.Int32

	writeMu sync.Mutex

	subs       *registry
	dispatcher *Dispatcher
	typing     *rate.Limiter
}

// NewClient builds a disconnected client. Connect must be called to open
// the transport.
func NewClient(opts Options, creds CredentialSource) *Client {
	opts.withDefaults()
	return &Client{
		opts:       opts,
		creds:      creds,
		dialer:     websocket.DefaultDialer,
		subs:       newRegistry(),
		dispatcher: NewDispatcher(),
		typing:     rate.NewLimiter(rate.Limit(opts.TypingPerSecond), opts.TypingPerSecond),
	}
}

// State returns the current lifecycle state
func (c *Client) State() State {
	return State(c.state.Load())
}

// IsConnected reports whether the transport is established
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// On registers a handler for a logical event type and returns its
// disposable registration.
func (c *Client) On(event models.EventType, fn HandlerFunc) *Registration {
	return c.dispatcher.On(event, fn)
}

// Connect opens the broker connection. It is a no-op when already
// connected, and resolves immediately without opening a transport when no
// credential is stored. An explicit call resets the reconnection budget.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconnectAttempts = 0
	c.stopReconnectTimerLocked()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.State() == StateConnected {
		return nil
	}
	token, ok := c.creds.Token()
	if !ok {
		c.state.Store(int32(StateDisconnected))
		return nil
	}

	c.state.Store(int32(StateConnecting))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := c.dialer.Dial(c.opts.BrokerURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		c.state.Store(int32(StateDisconnected))
		c.scheduleReconnectLocked()
		return fmt.Errorf("realtime: connect %s: %w", c.opts.BrokerURL, err)
	}

	c.conn = conn
	c.gen++
	gen := c.gen
	c.reconnectAttempts = 0
	c.state.Store(int32(StateConnected))

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump(conn, gen)
	go c.pingLoop(conn, gen)

	c.establishSubscriptionsLocked(conn)
	return nil
}

// Disconnect tears the connection down: cancels any pending reconnect,
// closes the transport and clears all subscriptions and handlers. This is
// the only path that clears handlers; implicit drops do not.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopReconnectTimerLocked()
	c.gen++
	if c.conn != nil {
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.conn.Close()
		c.conn = nil
	}
	c.subs.clear()
	c.dispatcher.Clear()
	c.reconnectAttempts = 0
	c.state.Store(int32(StateDisconnected))
}

// Subscribe registers a callback for a destination. It fails softly with
// ErrNotConnected while the connection is down. Re-subscribing to an
// already-subscribed destination releases the prior handle first.
func (c *Client) Subscribe(destination string, fn SubscriptionFunc) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateConnected || c.conn == nil {
		return nil, ErrNotConnected
	}

	if prior := c.subs.remove(destination); prior != nil {
		if err := c.write(c.conn, models.Envelope{
			Type:        models.FrameUnsubscribe,
			ID:          prior.ID,
			Destination: destination,
		}); err != nil {
			log.Printf("realtime: failed to release prior subscription to %s: %v", destination, err)
		}
	}

	sub := &Subscription{
		ID:          uuid.NewString(),
		Destination: destination,
		fn:          fn,
		client:      c,
	}
	if err := c.write(c.conn, models.Envelope{
		Type:        models.FrameSubscribe,
		ID:          sub.ID,
		Destination: destination,
	}); err != nil {
		return nil, fmt.Errorf("realtime: subscribe %s: %w", destination, err)
	}
	c.subs.put(sub)
	return sub, nil
}

// SubscribeToGroup subscribes to a study group's chat topic
func (c *Client) SubscribeToGroup(groupID int64, fn SubscriptionFunc) (*Subscription, error) {
	return c.Subscribe(models.GroupTopic(groupID), fn)
}

// Unsubscribe releases the subscription for a destination. Safe no-op if
// none is registered.
func (c *Client) Unsubscribe(destination string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := c.subs.remove(destination)
	if sub == nil {
		return nil
	}
	return c.sendUnsubscribeLocked(sub)
}

func (c *Client) unsubscribeHandle(sub *Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.subs.removeIf(sub) {
		return nil
	}
	return c.sendUnsubscribeLocked(sub)
}

func (c *Client) sendUnsubscribeLocked(sub *Subscription) error {
	if c.State() != StateConnected || c.conn == nil {
		// Connection is gone; the broker-side leg died with it
		return nil
	}
	return c.write(c.conn, models.Envelope{
		Type:        models.FrameUnsubscribe,
		ID:          sub.ID,
		Destination: sub.Destination,
	})
}

// Subscriptions returns the number of registered destinations
func (c *Client) Subscriptions() int {
	return c.subs.len()
}

// HandlerCount returns the number of handlers registered for an event
func (c *Client) HandlerCount(event models.EventType) int {
	return c.dispatcher.HandlerCount(event)
}

// defaultSubscriptions is the fixed contract the UI layer depends on:
// every successful connect (re)establishes these.
var defaultSubscriptions = []struct {
	destination string
	event       models.EventType
}{
	{models.DestPrivateMessages, models.EventNewMessage},
	{models.DestNotifications, models.EventNewNotification},
	{models.DestUserStatus, models.EventUserStatus},
	{models.DestTyping, models.EventTypingIndicator},
}

func (c *Client) establishSubscriptionsLocked(conn *websocket.Conn) {
	for _, def := range defaultSubscriptions {
		if c.subs.get(def.destination) == nil {
			event := def.event
			c.subs.put(&Subscription{
				ID:          uuid.NewString(),
				Destination: def.destination,
				client:      c,
				fn: func(body json.RawMessage) {
					c.dispatcher.Dispatch(event, body)
				},
			})
		}
	}

	// Re-issue the broker-side leg for everything registered, including
	// group topics that survived a drop.
	for _, sub := range c.subs.all() {
		if err := c.write(conn, models.Envelope{
			Type:        models.FrameSubscribe,
			ID:          sub.ID,
			Destination: sub.Destination,
		}); err != nil {
			log.Printf("realtime: failed to subscribe to %s: %v", sub.Destination, err)
		}
	}
}

func (c *Client) readPump(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDrop(conn, gen, err)
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("realtime: dropping malformed frame: %v", err)
			continue
		}

		switch env.Type {
		case models.FrameMessage:
			if sub := c.subs.get(env.Destination); sub != nil && sub.fn != nil {
				deliver(sub, env.Body)
			}
		case models.FrameError:
			log.Printf("realtime: broker error: %s", string(env.Body))
		}
	}
}

// deliver invokes a subscription callback with the same recover guard the
// dispatcher applies to handlers, so a panicking callback cannot take down
// the read pump.
func deliver(sub *Subscription, body json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime: subscription callback for %s panicked: %v", sub.Destination, r)
		}
	}()
	sub.fn(body)
}

func (c *Client) pingLoop(conn *websocket.Conn, gen int) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		stale := c.gen != gen || c.State() != StateConnected
		c.mu.Unlock()
		if stale {
			return
		}

		c.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.PingMessage, nil)
		c.writeMu.Unlock()
		if err != nil {
			// The read pump observes the same failure and schedules
			// reconnection
			return
		}
	}
}

func (c *Client) handleDrop(conn *websocket.Conn, gen int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		// Explicit disconnect or a newer connection superseded this one
		return
	}

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Printf("realtime: connection dropped: %v", err)
	}
	conn.Close()
	c.conn = nil
	c.state.Store(int32(StateReconnecting))
	c.scheduleReconnectLocked()
}

func (c *Client) scheduleReconnectLocked() {
	if c.reconnectAttempts >= c.opts.MaxReconnectAttempts {
		log.Printf("realtime: max reconnection attempts reached (%d)", c.opts.MaxReconnectAttempts)
		c.state.Store(int32(StateDisconnected))
		return
	}
	c.reconnectAttempts++
	attempt := c.reconnectAttempts

	c.stopReconnectTimerLocked()
	c.reconnectTimer = time.AfterFunc(c.opts.ReconnectInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.State() == StateConnected {
			return
		}
		if _, ok := c.creds.Token(); !ok {
			c.state.Store(int32(StateDisconnected))
			return
		}
		log.Printf("realtime: reconnecting... (%d/%d)", attempt, c.opts.MaxReconnectAttempts)
		if err := c.connectLocked(); err != nil {
			log.Printf("realtime: reconnection failed: %v", err)
		}
	})
}

func (c *Client) stopReconnectTimerLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// write serializes the envelope onto the given connection. The write lock
// keeps concurrent sends, pings and control frames from interleaving.
func (c *Client) write(conn *websocket.Conn, env models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

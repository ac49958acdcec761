package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lox/tableclient/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrBufferFull   = errors.New("send buffer full")
)

const (
	pingPeriod   = 54 * time.Second
	writeTimeout = 10 * time.Second
	bufferSize   = 256

	// ClientIDHeader carries the client instance ID on the handshake
	ClientIDHeader = "X-Client-Id"
)

// Config controls dialing and the reconnection policy
type Config struct {
	URL               string
	HandshakeTimeout  time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// Client is a WebSocket connection to the table server that reconnects a
// bounded number of times with a fixed delay. Inbound frames and lifecycle
// changes are delivered in order on Events.
type Client struct {
	cfg    Config
	url    string
	id     uuid.UUID
	dialer *websocket.Dialer
	clock  quartz.Clock
	logger *log.Logger
	events chan Event

	mu   sync.RWMutex
	send chan []byte // nil while disconnected
}

// New creates a transport client; it does not connect until Run
func New(cfg Config, clock quartz.Clock, logger *log.Logger) (*Client, error) {
	u, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.ReconnectAttempts < 0 {
		return nil, fmt.Errorf("reconnect attempts cannot be negative")
	}

	id := uuid.New()
	return &Client{
		cfg: cfg,
		url: u,
		id:  id,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		clock:  clock,
		logger: logger.WithPrefix("transport").With("client", id.String()[:8]),
		events: make(chan Event, bufferSize),
	}, nil
}

// NormalizeURL converts http(s) URLs to ws(s) and defaults the path to /ws
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL: missing host")
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// ID returns the client instance ID sent with every handshake
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Events returns the ordered stream of transport events. It is closed when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// IsConnected returns whether a connection is currently open
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send != nil
}

// Emit sends an event to the server. It never blocks; it fails when
// disconnected or when the send buffer is full.
func (c *Client) Emit(event protocol.EventType, data interface{}) error {
	env, err := protocol.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	frame, err := protocol.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.send == nil {
		return ErrNotConnected
	}

	select {
	case c.send <- frame:
		c.logger.Debug("Queued event", "event", event)
		return nil
	default:
		return ErrBufferFull
	}
}

// Run connects and keeps the connection alive until ctx is cancelled or the
// reconnect attempts are exhausted. Exhaustion is reported as an
// EventReconnectFailed and Run returns nil.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	c.logger.Info("Connecting to server", "url", c.url)
	var send chan []byte
	conn, err := c.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("Failed to connect", "error", err)
		c.publish(ctx, Event{Kind: EventConnectError, Err: err})
	} else {
		send = c.attach()
		c.publish(ctx, Event{Kind: EventConnected})
	}

	for {
		if conn != nil {
			c.serve(ctx, conn, send)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.publish(ctx, Event{Kind: EventDisconnected})
		}

		var attempt int
		conn, attempt, err = c.reconnect(ctx)
		if err != nil {
			return err
		}
		if conn == nil {
			c.logger.Error("Giving up after reconnect attempts", "attempts", c.cfg.ReconnectAttempts)
			c.publish(ctx, Event{Kind: EventReconnectFailed})
			return nil
		}
		send = c.attach()
		c.publish(ctx, Event{Kind: EventReconnected, Attempt: attempt})
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set(ClientIDHeader, c.id.String())

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

// reconnect waits ReconnectDelay before each of ReconnectAttempts dials. It
// returns a nil conn when every attempt failed.
func (c *Client) reconnect(ctx context.Context) (*websocket.Conn, int, error) {
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		timer := c.clock.NewTimer(c.cfg.ReconnectDelay, "transport", "reconnect")
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, 0, ctx.Err()
		}

		c.logger.Info("Reconnecting", "attempt", attempt, "of", c.cfg.ReconnectAttempts)
		conn, err := c.dial(ctx)
		if err == nil {
			return conn, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		c.logger.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
	}
	return nil, 0, nil
}

// attach opens a fresh send buffer so intents emitted in reaction to a
// connect event are queued for the new connection
func (c *Client) attach() chan []byte {
	send := make(chan []byte, bufferSize)
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
	return send
}

// serve runs the pumps for one connection and returns when it is lost
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, send chan []byte) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		c.mu.Lock()
		c.send = nil
		c.mu.Unlock()
		_ = conn.Close() // Ignore close errors during cleanup
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(connCtx, conn, send)
	}()

	c.readPump(connCtx, conn)
	cancel()
	<-done
}

// readPump handles incoming frames until the connection fails
func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		env, err := protocol.Unmarshal(frame)
		if err != nil {
			c.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}

		c.logger.Debug("Received event", "event", env.Event)
		if !c.publish(ctx, Event{Kind: EventMessage, Envelope: env}) {
			return
		}
	}
}

// writePump handles outgoing frames and keepalive pings
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte) {
	ticker := c.clock.NewTicker(pingPeriod, "transport", "ping")
	defer ticker.Stop()

	for {
		select {
		case frame := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				_ = conn.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}

		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) publish(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a StreamTransport over a WebSocket connection.
// Reconnection is owned here: read failures schedule a redial with
// capped backoff and the client never gives up while its context lives.
type Client struct {
	url            string
	reconnectDelay time.Duration
	maxDelay       time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// Option configures the Client.
type Option func(*Client)

// WithReconnect sets the initial and maximum reconnect delays.
func WithReconnect(initial, max time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.reconnectDelay = initial
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithPingInterval sets the keepalive ping interval.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// New creates a stream client for the backend push endpoint.
func New(url string, log *applogger.Logger, opts ...Option) drepo.StreamTransport {
	c := &Client{
		url:            url,
		reconnectDelay: 2 * time.Second,
		maxDelay:       30 * time.Second,
		pingInterval:   15 * time.Second,
		log:            log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the WebSocket connection. Idempotent while a
// connection is already up.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected && c.conn != nil {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return &models.ConnectionError{Err: fmt.Errorf("dial %s: %w", c.url, err)}
	}
	c.conn = conn
	c.connected = true
	c.log.Info("stream connected", applogger.String("url", c.url))
	return nil
}

// IsConnected reports whether the transport currently has a live connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send writes one event to the backend.
func (c *Client) Send(_ context.Context, event models.StreamEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return &models.ConnectionError{Err: fmt.Errorf("not connected")}
	}
	if err := c.conn.WriteJSON(event); err != nil {
		c.connected = false
		return &models.ConnectionError{Err: fmt.Errorf("write %s: %w", event.Type, err)}
	}
	return nil
}

// Read streams events and transient errors. Synthetic connect and
// disconnect events bracket every (re)connection so the consumer can
// track status transitions without watching the error channel. Channels
// close when ctx is cancelled.
func (c *Client) Read(ctx context.Context) (<-chan models.StreamEvent, <-chan error) {
	events := make(chan models.StreamEvent, 256)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)

	go func() {
		defer close(events)
		defer close(errs)

		if c.IsConnected() {
			emit(ctx, events, models.StreamEvent{Type: models.EventConnect})
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			c.mu.Lock()
			conn := c.conn
			alive := c.connected
			c.mu.Unlock()

			if conn == nil || !alive {
				emit(ctx, events, models.StreamEvent{Type: models.EventDisconnect})
				if !c.redial(ctx, errs) {
					return
				}
				emit(ctx, events, models.StreamEvent{Type: models.EventConnect})
				continue
			}

			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				c.dropConn()
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.log.Warn("stream read error", applogger.Error(err))
				}
				select {
				case errs <- &models.ConnectionError{Err: err}:
				default:
				}
				continue
			}

			var ev models.StreamEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				// tolerate heartbeat / non-JSON frames from proxies
				continue
			}
			if ev.Type == "" {
				continue
			}
			emit(ctx, events, ev)
		}
	}()

	return events, errs
}

// redial blocks until a new connection is up or ctx is done. Backoff
// doubles per attempt up to maxDelay; there is no attempt limit.
func (c *Client) redial(ctx context.Context, errs chan<- error) bool {
	delay := c.reconnectDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}

		if err := c.Connect(ctx); err == nil {
			c.log.Info("stream reconnected", applogger.Int("attempt", attempt))
			return true
		} else {
			c.log.Warn("stream reconnect failed",
				applogger.Int("attempt", attempt), applogger.Error(err))
			select {
			case errs <- err:
			default:
			}
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// gorilla allows one writer at a time; the ping must hold
			// the same lock Send writes under
			c.mu.Lock()
			if c.conn == nil || !c.connected {
				c.mu.Unlock()
				continue
			}
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				c.dropConn()
			}
		}
	}
}

func (c *Client) dropConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.connected = false
}

// Close tears down the connection. Read loops exit via their context.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func emit(ctx context.Context, ch chan<- models.StreamEvent, ev models.StreamEvent) {
	select {
	case <-ctx.Done():
	case ch <- ev:
	}
}

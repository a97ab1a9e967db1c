package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/observability"
)

const (
	// the single per-user inbound queue every envelope arrives on
	subscriptionDestination = "/user/queue/realtime"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultBackoff = 3 * time.Second
)

// Channel is a persistent subscription to the notification service's
// per-user queue: STOMP over a websocket, query-parameterized by userId.
// It reconnects with a fixed backoff until the owning context is canceled.
// Envelopes are delivered on Envelopes(); receiving one consumes it, so
// nothing is ever reprocessed. No envelope is ever synthesized on failure:
// consumers that cannot afford to miss updates must poll as a fallback.
type Channel struct {
	url     string
	userID  string
	backoff time.Duration
	logger  *slog.Logger
	dialer  *websocket.Dialer

	envelopes chan models.Envelope
	connected atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

type ChannelOption func(*Channel)

func WithBackoff(d time.Duration) ChannelOption {
	return func(c *Channel) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// Dial starts the channel. One channel per non-empty userID; the connection
// is released when ctx is canceled or Close is called.
func Dial(ctx context.Context, wsURL, userID string, logger *slog.Logger, opts ...ChannelOption) (*Channel, error) {
	if userID == "" {
		return nil, fmt.Errorf("realtime: userID required")
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Channel{
		url:       wsURL,
		userID:    userID,
		backoff:   defaultBackoff,
		logger:    logger,
		dialer:    websocket.DefaultDialer,
		envelopes: make(chan models.Envelope, 16),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.run(ctx)
	return c, nil
}

// Envelopes is closed once the channel shuts down for good.
func (c *Channel) Envelopes() <-chan models.Envelope { return c.envelopes }

func (c *Channel) Connected() bool { return c.connected.Load() }

func (c *Channel) Close() {
	c.cancel()
	<-c.done
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.envelopes)
	for {
		err := c.session(ctx)
		c.connected.Store(false)
		observability.WSConnected.Set(0)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("realtime connection lost, will retry", "error", err, "backoff", c.backoff)
		observability.WSReconnects.Inc()
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Channel) session(ctx context.Context) error {
	u := c.url + "?userId=" + url.QueryEscape(c.userID)
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	// unblock the read loop when the owner cancels
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var writeMu sync.Mutex
	writeFrame := func(f *Frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, f.Marshal())
	}

	connect := &Frame{Command: cmdConnect, Headers: map[string]string{
		"accept-version": "1.2",
		"host":           "/",
		"heart-beat":     "0,0",
	}}
	if err := writeFrame(connect); err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	reply, err := ParseFrame(data)
	if err != nil {
		return err
	}
	if reply.Command != cmdConnected {
		return fmt.Errorf("expected CONNECTED, got %s: %s", reply.Command, reply.Headers["message"])
	}

	subscribe := &Frame{Command: cmdSubscribe, Headers: map[string]string{
		"id":          "sub-0",
		"destination": subscriptionDestination,
		"ack":         "auto",
	}}
	if err := writeFrame(subscribe); err != nil {
		return err
	}

	c.connected.Store(true)
	observability.WSConnected.Set(1)
	c.logger.Info("realtime channel connected", "user_id", c.userID)

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					return
				}
			case <-pingDone:
				return
			}
		}
	}()

	return c.readLoop(ctx, conn)
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		frame, err := ParseFrame(data)
		if err != nil {
			// heartbeat or junk; keep the session
			continue
		}
		switch frame.Command {
		case cmdMessage:
			var env models.Envelope
			if err := json.Unmarshal(frame.Body, &env); err != nil {
				c.logger.Warn("undecodable envelope dropped", "error", err)
				continue
			}
			observability.EnvelopesTotal.WithLabelValues(env.Type).Inc()
			select {
			case c.envelopes <- env:
			case <-ctx.Done():
				return ctx.Err()
			}
		case cmdError:
			return fmt.Errorf("stomp error: %s", frame.Headers["message"])
		}
	}
}

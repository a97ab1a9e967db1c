package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-agent/internal/session"
)

// Client is the single HTTP client every service wrapper goes through. It
// injects the bearer token from the session store and handles 401 globally:
// the stored credentials are cleared once and OnAuthExpired fires, after
// which every request fails fast with ErrAuthExpired.
type Client struct {
	base   string
	http   *http.Client
	store  session.Store
	logger *slog.Logger

	expired     atomic.Bool
	expireOnce  sync.Once
	onAuthError func()
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// OnAuthExpired registers the callback invoked exactly once when a 401 is
// seen. A UI would redirect to login here; the agent shuts down instead.
func OnAuthExpired(fn func()) Option {
	return func(c *Client) { c.onAuthError = fn }
}

func NewClient(base string, store session.Store, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: 10 * time.Second},
		store:  store,
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.expired.Load() {
		return ErrAuthExpired
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if creds, err := c.store.Load(); err == nil && creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.authExpired()
		return ErrAuthExpired
	}
	if resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	ae := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if len(b) > 0 {
		// best-effort; a non-JSON body just keeps the status
		_ = json.Unmarshal(b, ae)
	}
	return ae
}

func (c *Client) authExpired() {
	c.expired.Store(true)
	c.expireOnce.Do(func() {
		if err := c.store.Clear(); err != nil {
			c.logger.Error("clearing session after 401", "error", err)
		}
		c.logger.Warn("session expired, credentials cleared")
		if c.onAuthError != nil {
			c.onAuthError()
		}
	})
}

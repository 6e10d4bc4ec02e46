package httpdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/statesync/internal/core/domain"
	"github.com/custodia-labs/statesync/internal/core/ports/driven"
	"github.com/custodia-labs/statesync/internal/docserver/protocol"
)

// Ensure Client implements the interface.
var _ driven.RemoteStore = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit replaces the request limits.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(cfg) }
}

// WithBackoff replaces the subscription redial backoff.
func WithBackoff(b Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client talks to one project on a document server.
type Client struct {
	baseURL string
	cfg     domain.SyncConfig
	http    *http.Client
	dialer  *websocket.Dialer
	limiter *RateLimiter
	backoff Backoff

	mu     sync.Mutex
	closed bool
	subs   map[*subscription]struct{}
}

// NewClient creates a client for endpoint using cfg's credentials.
func NewClient(endpoint string, cfg domain.SyncConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		dialer:  websocket.DefaultDialer,
		limiter: NewRateLimiter(DefaultRateLimit),
		backoff: DefaultBackoff,
		subs:    make(map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDocument reads the account document.
func (c *Client) GetDocument(ctx context.Context, accountID string) (*domain.RemoteDocument, error) {
	var doc domain.RemoteDocument
	if err := c.do(ctx, http.MethodGet, protocol.DocumentPath(c.cfg.ProjectID, accountID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// MergeWrite merges w into the account document.
func (c *Client) MergeWrite(ctx context.Context, accountID string, w domain.DocumentWrite) error {
	if w.IsEmpty() {
		return nil
	}
	return c.do(ctx, http.MethodPatch, protocol.DocumentPath(c.cfg.ProjectID, accountID), w, nil)
}

// Ping checks that the server is reachable and accepts the credentials.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, protocol.DocumentPath(c.cfg.ProjectID, domain.DefaultAccountID), nil, nil)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// Close ends every open subscription. The client is unusable afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := make([]*subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	h.Set(protocol.HeaderAppID, c.cfg.AppID)
	return h
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.isClosed() {
		return domain.ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	req.Header = c.headers()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrMalformedPayload, err)
		}
		return nil
	}

	var eb protocol.ErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, eb.Error)
	case http.StatusTooManyRequests:
		c.limiter.Pause(retryAfter(resp.Header.Get("Retry-After")))
	}
	if eb.Error != "" {
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, eb.Error)
	}
	return fmt.Errorf("%w: status %d", domain.ErrTransport, resp.StatusCode)
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) listenURL(accountID string) string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + protocol.ListenPath(c.cfg.ProjectID, accountID)
}

func (c *Client) dial(ctx context.Context, accountID string) (*websocket.Conn, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.listenURL(accountID), c.headers())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: listen", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: listen: %v", domain.ErrTransport, err)
	}
	return conn, nil
}

// Subscribe opens a listen socket. The first dial happens before Subscribe
// returns; later drops are redialled in the background and reported to
// onError. Snapshots are delivered one at a time in arrival order.
func (c *Client) Subscribe(
	ctx context.Context,
	accountID string,
	onSnapshot driven.SnapshotFunc,
	onError func(error),
) (driven.Subscription, error) {
	if c.isClosed() {
		return nil, domain.ErrNotConnected
	}
	conn, err := c.dial(ctx, accountID)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		client:     c,
		accountID:  accountID,
		onSnapshot: onSnapshot,
		onError:    onError,
		ctx:        subCtx,
		cancel:     cancel,
		conn:       conn,
		done:       make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return nil, domain.ErrNotConnected
	}
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	go s.run()
	return s, nil
}

func (c *Client) forget(s *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, s)
}

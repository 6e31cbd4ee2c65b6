// Package httpbackend talks to the FitConnect REST API and follows the
// caller's session events over the API's websocket stream.
package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fitconnect/internal/api"
	"fitconnect/internal/backend"
	"fitconnect/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

const defaultTimeout = 10 * time.Second

type Options struct {
	BaseURL string
	// Timeout applies to each request when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
	// OAuthRedirect is passed to the API as redirect_to when a provider
	// sign-in starts.
	OAuthRedirect string
	// Watch follows server-side session events while signed in.
	Watch bool
}

// Error is a refusal answered by the API.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (%d): %s", e.kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	opts   Options

	mu        sync.RWMutex
	session   *backend.Session
	sessionID string
	stopWatch context.CancelFunc
	closed    bool

	refreshMu sync.Mutex

	lmu       sync.Mutex
	listeners map[int]func(backend.SessionEvent)
	nextID    int

	wg sync.WaitGroup
}

var _ backend.Backend = (*Client)(nil)

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:      base,
		http:      hc,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		opts:      opts,
		listeners: make(map[int]func(backend.SessionEvent)),
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one API call. An authed call that comes back 401 refreshes
// the session once and is retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, authed bool) error {
	used, err := c.send(ctx, method, path, query, in, out, authed)
	if !authed || !errors.Is(err, backend.ErrUnauthorized) || used == "" {
		return err
	}

	if rerr := c.refresh(ctx, used); rerr != nil {
		return err
	}
	_, err = c.send(ctx, method, path, query, in, out, authed)
	return err
}

// send returns the access token it presented, if any.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in, out any, authed bool) (string, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var token string
	if authed {
		token = c.accessToken()
		if token == "" {
			return "", fmt.Errorf("%w: no session", backend.ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return token, fmt.Errorf("%w: %s %s: %w", backend.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return token, fmt.Errorf("%w: read response: %w", backend.ErrUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		return token, statusError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return token, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return token, nil
}

func statusError(code int, body []byte) error {
	msg := http.StatusText(code)
	var payload api.ErrorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized:
		kind = backend.ErrUnauthorized
	case code == http.StatusForbidden:
		kind = backend.ErrForbidden
	case code == http.StatusNotFound:
		kind = backend.ErrNotFound
	case code == http.StatusConflict && strings.Contains(strings.ToLower(msg), "full"):
		kind = backend.ErrClassFull
	case code == http.StatusConflict:
		kind = backend.ErrConflict
	case code >= http.StatusInternalServerError:
		kind = backend.ErrUnavailable
	default:
		kind = backend.ErrRejected
	}

	return &Error{Status: code, Message: msg, kind: kind}
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) currentSession() *backend.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	sess := *c.session
	return &sess
}

func (c *Client) currentSessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) setSession(sess *backend.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *sess
	c.session = &cp
	c.sessionID = sessionIDFromToken(sess.AccessToken)

	if c.opts.Watch && c.stopWatch == nil && !c.closed {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopWatch = cancel
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.watch(ctx)
		}()
	}
}

// dropSession forgets the local session and reports whether there was one.
func (c *Client) dropSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	had := c.session != nil
	c.session = nil
	c.sessionID = ""
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	return had
}

// sessionIDFromToken reads the jti of an access token. The signature is the
// API's business; the id only matches events to this session.
func sessionIDFromToken(token string) string {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	return claims.ID
}

func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess := c.currentSession()
	if sess == nil {
		return backend.ErrUnauthorized
	}
	if sess.AccessToken != stale {
		// refreshed while we waited
		return nil
	}

	var fresh backend.Session
	_, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, user.RefreshRequest{RefreshToken: sess.RefreshToken}, &fresh, false)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) && c.dropSession() {
			c.emit(backend.SessionEvent{Type: backend.EventSignedOut})
		}
		return err
	}

	c.setSession(&fresh)
	c.emit(backend.SessionEvent{Type: backend.EventTokenRefreshed, Session: c.currentSession()})
	return nil
}

func (c *Client) OnAuthStateChange(fn func(backend.SessionEvent)) func() {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

func (c *Client) emit(ev backend.SessionEvent) {
	c.lmu.Lock()
	fns := make([]func(backend.SessionEvent), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close stops the event stream and drops the listeners. The session on the
// API side is left alone.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.lmu.Lock()
	c.listeners = make(map[int]func(backend.SessionEvent))
	c.lmu.Unlock()

	c.http.CloseIdleConnections()
	return nil
}

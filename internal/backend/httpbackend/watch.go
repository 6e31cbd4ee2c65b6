package httpbackend

import (
	"context"
	"net/url"
	"time"

	"fitconnect/internal/backend"
	"fitconnect/internal/logger"
	"fitconnect/internal/session"
)

const (
	watchInitialBackoff = time.Second
	watchMaxBackoff     = 30 * time.Second
)

// watch keeps an event stream open until ctx ends, reconnecting with
// exponential backoff.
func (c *Client) watch(ctx context.Context) {
	backoff := watchInitialBackoff
	for {
		connected, err := c.stream(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = watchInitialBackoff
		}
		logger.Warn("Session event stream dropped", "error", err, "retry_in", backoff.String())

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, watchMaxBackoff)
	}
}

// stream reads events until the connection fails. Only a sign-out of this
// very session matters here; sign-ins and refreshes made by this client are
// announced locally when they happen.
func (c *Client) stream(ctx context.Context) (bool, error) {
	token := c.accessToken()
	if token == "" {
		return false, backend.ErrUnauthorized
	}

	conn, _, err := c.dialer.DialContext(ctx, c.eventsURL(token), nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev session.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return true, err
		}

		if ev.Type != session.EventSignedOut || ev.SessionID == "" || ev.SessionID != c.currentSessionID() {
			continue
		}

		logger.Info("Session ended by the server", "session_id", ev.SessionID)
		if c.dropSession() {
			c.emit(backend.SessionEvent{Type: backend.EventSignedOut})
		}
		return true, nil
	}
}

func (c *Client) eventsURL(token string) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/auth/events"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String()
}

package httpbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fitconnect/internal/backend"
	"fitconnect/internal/oauth"
	"fitconnect/internal/user"
)

// GetSession confirms the local session with the API. A session the API no
// longer honours is dropped and reported as nil.
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	if c.currentSession() == nil {
		return nil, nil
	}

	var info user.SessionInfo
	err := c.do(ctx, http.MethodGet, "/auth/session", nil, nil, &info, true)
	if errors.Is(err, backend.ErrUnauthorized) {
		if c.dropSession() {
			c.emit(backend.SessionEvent{Type: backend.EventSignedOut})
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.User = info.User
	}
	c.mu.Unlock()

	return c.currentSession(), nil
}

func (c *Client) SignUp(ctx context.Context, params backend.SignUpParams) (*backend.AuthResult, error) {
	var res backend.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, params, &res, false); err != nil {
		return nil, err
	}
	c.signedIn(res.Session)
	return &res, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	var res backend.AuthResult
	req := user.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &res, false); err != nil {
		return nil, err
	}
	c.signedIn(res.Session)
	return &res, nil
}

func (c *Client) signedIn(sess *backend.Session) {
	if sess == nil {
		return
	}
	c.setSession(sess)
	c.emit(backend.SessionEvent{Type: backend.EventSignedIn, Session: c.currentSession()})
}

func (c *Client) SignInWithOAuth(ctx context.Context, provider string) (string, error) {
	var query url.Values
	if c.opts.OAuthRedirect != "" {
		query = url.Values{"redirect_to": {c.opts.OAuthRedirect}}
	}

	var resp oauth.AuthURLResponse
	if err := c.do(ctx, http.MethodGet, "/auth/oauth/"+url.PathEscape(provider), query, nil, &resp, false); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// SessionFromFragment reads the tokens the OAuth callback puts in the URL
// fragment of the redirect.
func SessionFromFragment(fragment string) (*backend.Session, error) {
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	sess := &backend.Session{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		return nil, fmt.Errorf("%w: fragment has no tokens", backend.ErrRejected)
	}
	if raw := values.Get("expires_at"); raw != "" {
		if sess.ExpiresAt, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("parse expires_at: %w", err)
		}
	}
	return sess, nil
}

// AdoptSession installs tokens obtained outside this client, typically from
// an OAuth redirect, and announces the sign-in once the API accepts them.
func (c *Client) AdoptSession(ctx context.Context, sess *backend.Session) (*backend.Session, error) {
	c.setSession(sess)

	confirmed, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if confirmed == nil {
		return nil, fmt.Errorf("%w: session rejected", backend.ErrUnauthorized)
	}

	c.emit(backend.SessionEvent{Type: backend.EventSignedIn, Session: confirmed})
	return confirmed, nil
}

// SignOut ends the session on the API. The local session is dropped and
// SIGNED_OUT announced whatever the API answers.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if c.currentSession() != nil {
		_, err = c.send(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, true)
		if errors.Is(err, backend.ErrUnauthorized) {
			err = nil
		}
	}

	if c.dropSession() {
		c.emit(backend.SessionEvent{Type: backend.EventSignedOut})
	}
	return err
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", nil, user.ResetPasswordRequest{Email: email}, nil, false)
}

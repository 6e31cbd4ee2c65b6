package httpbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"fitconnect/internal/auth"
	"fitconnect/internal/backend"
	"fitconnect/internal/booking"
	"fitconnect/internal/offering"
	"fitconnect/internal/session"
	"fitconnect/internal/user"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeAPI struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu      sync.Mutex
	valid   map[string]bool
	minted  int
	refresh int
	events  chan session.Event
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{
		t:      t,
		mux:    http.NewServeMux(),
		valid:  map[string]bool{},
		events: make(chan session.Event, 4),
	}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

// mint issues a distinct token pair on every call, even within one second.
func (f *fakeAPI) mint(sessionID string) *backend.Session {
	f.mu.Lock()
	f.minted++
	email := fmt.Sprintf("jane+%d@example.com", f.minted)
	f.mu.Unlock()

	pair, err := auth.IssueTokenPair(auth.Identity{UserID: 1, Email: email, Role: auth.RoleUser, SessionID: sessionID}, testSecret, testSecret)
	require.NoError(f.t, err)
	f.mu.Lock()
	f.valid[pair.AccessToken] = true
	f.mu.Unlock()
	return &backend.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         user.AuthUser{ID: 1, Email: "jane@example.com", Role: auth.RoleUser},
	}
}

func (f *fakeAPI) revoke(token string) {
	f.mu.Lock()
	delete(f.valid, token)
	f.mu.Unlock()
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := r.Header.Get("Authorization")
	return len(token) > 7 && f.valid[token[7:]]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handleLogin(sessionID string) {
	f.mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req user.LoginRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct-horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
			return
		}
		sess := f.mint(sessionID)
		writeJSON(w, http.StatusOK, backend.AuthResult{User: sess.User, Session: sess})
	})
}

func (f *fakeAPI) handleBookings() {
	f.mux.HandleFunc("GET /api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []booking.Booking{{ID: 3, UserID: 1, ClassID: 7, Status: booking.StatusConfirmed}})
	})
}

func newClient(t *testing.T, f *fakeAPI, watch bool) *Client {
	c, err := New(Options{BaseURL: f.server.URL, Watch: watch})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(ev backend.SessionEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev.Type)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestSignInAndAuthedCall(t *testing.T) {
	f := newFakeAPI(t)
	f.handleLogin("sess-1")
	f.handleBookings()

	c := newClient(t, f, false)
	rec := &recorder{}
	c.OnAuthStateChange(rec.record)

	res, err := c.SignInWithPassword(context.Background(), "jane@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, 1, res.User.ID)
	assert.Equal(t, "sess-1", c.currentSessionID())

	list, err := c.Bookings(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].ClassID)
	assert.Equal(t, []string{backend.EventSignedIn}, rec.list())
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFakeAPI(t)
	f.handleLogin("sess-1")

	c := newClient(t, f, false)
	_, err := c.SignInWithPassword(context.Background(), "jane@example.com", "nope")

	assert.ErrorIs(t, err, backend.ErrUnauthorized)
	assert.Nil(t, c.currentSession())
}

func TestRefreshOnUnauthorized(t *testing.T) {
	f := newFakeAPI(t)
	f.handleBookings()
	f.mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.refresh++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.mint("sess-1"))
	})

	c := newClient(t, f, false)
	stale := f.mint("sess-1")
	f.revoke(stale.AccessToken)
	c.setSession(stale)

	rec := &recorder{}
	c.OnAuthStateChange(rec.record)

	list, err := c.Bookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, f.refresh)
	assert.NotEqual(t, stale.AccessToken, c.accessToken())
	assert.Equal(t, []string{backend.EventTokenRefreshed}, rec.list())
}

func TestRefreshRejectedSignsOut(t *testing.T) {
	f := newFakeAPI(t)
	f.handleBookings()
	f.mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired refresh token"})
	})

	c := newClient(t, f, false)
	stale := f.mint("sess-1")
	f.revoke(stale.AccessToken)
	c.setSession(stale)

	rec := &recorder{}
	c.OnAuthStateChange(rec.record)

	_, err := c.Bookings(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
	assert.Nil(t, c.currentSession())
	assert.Equal(t, []string{backend.EventSignedOut}, rec.list())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		msg  string
		want error
	}{
		{"full", http.StatusConflict, "Class is full", backend.ErrClassFull},
		{"conflict", http.StatusConflict, "Booking already cancelled", backend.ErrConflict},
		{"missing", http.StatusNotFound, "Class not found", backend.ErrNotFound},
		{"forbidden", http.StatusForbidden, "You can only cancel your own bookings", backend.ErrForbidden},
		{"bad request", http.StatusBadRequest, "class_id is required", backend.ErrRejected},
		{"server error", http.StatusInternalServerError, "Failed to create booking", backend.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPI(t)
			f.mux.HandleFunc("POST /api/v1/bookings", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.code, map[string]string{"error": tt.msg})
			})

			c := newClient(t, f, false)
			c.setSession(f.mint("sess-1"))

			_, err := c.CreateBooking(context.Background(), 7)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.msg, apiErr.Message)
		})
	}
}

func TestUnreachableAPI(t *testing.T) {
	f := newFakeAPI(t)
	c := newClient(t, f, false)
	f.server.Close()

	_, err := c.Classes(context.Background(), offering.Query{})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.True(t, backend.IsUnavailable(err))
}

func TestAuthedCallWithoutSession(t *testing.T) {
	f := newFakeAPI(t)
	c := newClient(t, f, false)

	_, err := c.Favorites(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnauthorized)
}

func TestClassesSendsQuery(t *testing.T) {
	f := newFakeAPI(t)
	var gotType, gotSort string
	f.mux.HandleFunc("GET /api/v1/classes", func(w http.ResponseWriter, r *http.Request) {
		gotType = r.URL.Query().Get("type")
		gotSort = r.URL.Query().Get("sort")
		writeJSON(w, http.StatusOK, []offering.Offering{{ID: 1, Type: "Yoga"}})
	})

	c := newClient(t, f, false)
	list, err := c.Classes(context.Background(), offering.Query{Types: []string{"Yoga"}, SortBy: "price"})

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "Yoga", gotType)
	assert.Equal(t, "price", gotSort)
}

func TestSignOutDropsSessionOnError(t *testing.T) {
	f := newFakeAPI(t)
	f.mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to sign out"})
	})

	c := newClient(t, f, false)
	c.setSession(f.mint("sess-1"))
	rec := &recorder{}
	c.OnAuthStateChange(rec.record)

	err := c.SignOut(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Nil(t, c.currentSession())
	assert.Equal(t, []string{backend.EventSignedOut}, rec.list())
}

func TestGetSession(t *testing.T) {
	f := newFakeAPI(t)
	f.mux.HandleFunc("GET /auth/session", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Session revoked"})
			return
		}
		writeJSON(w, http.StatusOK, user.SessionInfo{SessionID: "sess-1", User: user.AuthUser{ID: 1, FullName: "Jane Doe"}})
	})

	c := newClient(t, f, false)

	sess, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)

	c.setSession(f.mint("sess-1"))
	sess, err = c.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Jane Doe", sess.User.FullName)
}

func TestSessionFromFragment(t *testing.T) {
	sess, err := SessionFromFragment("access_token=a&refresh_token=r&expires_at=2026-10-17T10%3A00%3A00Z")
	require.NoError(t, err)
	assert.Equal(t, "a", sess.AccessToken)
	assert.Equal(t, "r", sess.RefreshToken)
	assert.Equal(t, time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC), sess.ExpiresAt)

	_, err = SessionFromFragment("access_token=a")
	assert.ErrorIs(t, err, backend.ErrRejected)
}

func TestWatchSignsOutOnServerEvent(t *testing.T) {
	f := newFakeAPI(t)
	upgrader := websocket.Upgrader{}
	f.mux.HandleFunc("GET /auth/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for ev := range f.events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	})

	c := newClient(t, f, true)
	signedOut := make(chan struct{}, 1)
	c.OnAuthStateChange(func(ev backend.SessionEvent) {
		if ev.Type == backend.EventSignedOut {
			signedOut <- struct{}{}
		}
	})

	c.setSession(f.mint("sess-1"))

	f.events <- session.Event{Type: session.EventSignedOut, SessionID: "other-device", UserID: 1}
	f.events <- session.Event{Type: session.EventSignedOut, SessionID: "sess-1", UserID: 1}

	select {
	case <-signedOut:
	case <-time.After(3 * time.Second):
		t.Fatal("no SIGNED_OUT after the server ended the session")
	}
	assert.Nil(t, c.currentSession())
	close(f.events)
}

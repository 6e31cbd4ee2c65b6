// Package backend is the contract between the client state layer and the
// FitConnect API: an auth sub-resource plus table-like data operations.
package backend

import (
	"context"
	"errors"
	"time"

	"fitconnect/internal/booking"
	"fitconnect/internal/favorite"
	"fitconnect/internal/offering"
	"fitconnect/internal/studio"
	"fitconnect/internal/user"
)

// Remote failures are reported wrapped around one of these.
var (
	ErrUnavailable  = errors.New("backend unavailable")
	ErrUnauthorized = errors.New("not signed in")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrClassFull    = errors.New("class full")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("request rejected")
)

// Session-change event types.
const (
	EventSignedIn       = "SIGNED_IN"
	EventTokenRefreshed = "TOKEN_REFRESHED"
	EventSignedOut      = "SIGNED_OUT"
)

type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         user.AuthUser `json:"user"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

type AuthResult struct {
	User    user.AuthUser `json:"user"`
	Session *Session      `json:"session"`
}

type SessionEvent struct {
	Type    string
	Session *Session
}

type SignUpParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

// Auth is the identity side of the API.
type Auth interface {
	// GetSession returns nil without error when nobody is signed in.
	GetSession(ctx context.Context) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*AuthResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)
	// SignInWithOAuth returns the provider URL the user has to visit.
	SignInWithOAuth(ctx context.Context, provider string) (string, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	// OnAuthStateChange registers fn for session changes until the returned
	// function is called.
	OnAuthStateChange(fn func(SessionEvent)) (unsubscribe func())
}

// Data is the table side of the API. Calls other than Studios, Classes and
// Class need a signed-in session.
type Data interface {
	Profile(ctx context.Context, id int) (*user.User, error)
	CreateProfile(ctx context.Context, req user.CreateProfileRequest) (*user.User, error)
	UpdateProfile(ctx context.Context, req user.UpdateProfileRequest) (*user.User, error)

	Studios(ctx context.Context) ([]studio.StudioWithDistance, error)
	Classes(ctx context.Context, q offering.Query) ([]offering.Offering, error)
	Class(ctx context.Context, id int) (*offering.Detail, error)

	Bookings(ctx context.Context) ([]booking.Booking, error)
	CreateBooking(ctx context.Context, classID int) (*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID int) (*booking.Booking, error)

	Favorites(ctx context.Context) (*favorite.Set, error)
	// ToggleFavorite reports whether the item is a favorite afterwards.
	ToggleFavorite(ctx context.Context, kind string, id int) (bool, error)
}

type Backend interface {
	Auth
	Data
	Close() error
}

// IsUnavailable reports whether err means the API could not be reached, as
// opposed to the API answering with a refusal.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

package user

import (
	"database/sql"
	"time"
)

const (
	DefaultFullName  = "User"
	DefaultAvatarURL = "https://randomuser.me/api/portraits/lego/1.jpg"

	ProviderEmail = "email"
)

// Account is the sign-in identity. The profile row in users shares its id.
type Account struct {
	ID              int            `db:"id" json:"id"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    sql.NullString `db:"password_hash" json:"-"`
	Provider        string         `db:"provider" json:"provider"`
	ProviderSubject sql.NullString `db:"provider_subject" json:"-"`
	FullName        string         `db:"full_name" json:"full_name"`
	Role            string         `db:"role" json:"role"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

type User struct {
	ID          int       `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	Phone       string    `db:"phone" json:"phone"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	Role        string    `db:"role" json:"role"`
	StudioID    *int      `db:"studio_id" json:"studio_id,omitempty"`
	MemberSince time.Time `db:"member_since" json:"member_since"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type AuthUser struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) AuthUser() AuthUser {
	return AuthUser{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		FullName:  a.FullName,
		CreatedAt: a.CreatedAt,
	}
}

type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}

type AuthResponse struct {
	User    AuthUser         `json:"user"`
	Session *SessionResponse `json:"session"`
}

// SessionInfo describes the session behind a presented access token.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	User      AuthUser  `json:"user"`
}

type OAuthIdentity struct {
	Subject   string
	Email     string
	FullName  string
	AvatarURL string
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ConfirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type CreateProfileRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfileRequest leaves nil fields untouched.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

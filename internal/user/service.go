package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"fitconnect/internal/auth"
	"fitconnect/internal/logger"
	"fitconnect/internal/session"
)

var (
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionRevoked      = errors.New("session revoked")
)

// Sessions is the server-side session store.
type Sessions interface {
	Create(ctx context.Context, userID int, email, role string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, id string) error
	Revoke(ctx context.Context, userID int, id string) error
	RevokeAll(ctx context.Context, userID int) ([]string, error)
	Publish(ctx context.Context, eventType string, sess *session.Session) error
	IssueResetToken(ctx context.Context, userID int) (string, error)
	ConsumeResetToken(ctx context.Context, token string) (int, error)
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, email, name, link string) error
}

type Service interface {
	SignUp(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*SessionResponse, error)
	Logout(ctx context.Context, userID int, sessionID string) error
	GetSession(ctx context.Context, userID int, sessionID string) (*SessionInfo, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, password string) error
	SignInOAuth(ctx context.Context, provider string, identity OAuthIdentity) (*AuthResponse, error)

	GetProfile(ctx context.Context, id int) (*User, error)
	CreateProfile(ctx context.Context, accountID int, req CreateProfileRequest) (*User, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error)
}

type TokenSecrets struct {
	Access  string
	Refresh string
}

type service struct {
	repo     Repository
	sessions Sessions
	mailer   Mailer
	secrets  TokenSecrets
	appURL   string
}

func NewService(repo Repository, sessions Sessions, mailer Mailer, secrets TokenSecrets, appURL string) Service {
	return &service{
		repo:     repo,
		sessions: sessions,
		mailer:   mailer,
		secrets:  secrets,
		appURL:   appURL,
	}
}

// SignUp creates the sign-in identity only. The profile row is written by a
// separate call so a client can finish signup even if that step fails.
func (s *service) SignUp(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	acc, err := s.repo.CreateAccount(ctx, req.Email, passwordHash, req.FullName, auth.RoleUser)
	if err != nil {
		return nil, err
	}

	logger.Info("Account created", "user_id", acc.ID)
	return s.startSession(ctx, acc)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	acc, err := s.repo.FindAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(acc.PasswordHash.String, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, acc)
}

func (s *service) startSession(ctx context.Context, acc *Account) (*AuthResponse, error) {
	sess, err := s.sessions.Create(ctx, acc.ID, acc.Email, acc.Role)
	if err != nil {
		return nil, err
	}

	pair, err := auth.IssueTokenPair(auth.Identity{
		UserID:    acc.ID,
		Email:     acc.Email,
		Role:      acc.Role,
		SessionID: sess.ID,
	}, s.secrets.Access, s.secrets.Refresh)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session.EventSignedIn, sess)

	authUser := acc.AuthUser()
	return &AuthResponse{
		User: authUser,
		Session: &SessionResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresAt:    pair.ExpiresAt,
			User:         authUser,
		},
	}, nil
}

// Refresh rotates both tokens of a live session.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*SessionResponse, error) {
	claims, err := auth.ValidateToken(refreshToken, s.secrets.Refresh)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh || claims.SessionID() == "" {
		return nil, ErrInvalidRefreshToken
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}

	acc, err := s.repo.FindAccountByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Touch(ctx, sess.ID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}

	pair, err := auth.IssueTokenPair(auth.Identity{
		UserID:    acc.ID,
		Email:     acc.Email,
		Role:      acc.Role,
		SessionID: sess.ID,
	}, s.secrets.Access, s.secrets.Refresh)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session.EventTokenRefreshed, sess)

	return &SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         acc.AuthUser(),
	}, nil
}

func (s *service) Logout(ctx context.Context, userID int, sessionID string) error {
	if err := s.sessions.Revoke(ctx, userID, sessionID); err != nil {
		return err
	}

	s.publish(ctx, session.EventSignedOut, &session.Session{ID: sessionID, UserID: userID})
	return nil
}

func (s *service) GetSession(ctx context.Context, userID int, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrSessionRevoked
	}

	acc, err := s.repo.FindAccountByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		User:      acc.AuthUser(),
	}, nil
}

// RequestPasswordReset answers the same way whether or not the address is
// registered.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := s.repo.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.sessions.IssueResetToken(ctx, acc.ID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, url.QueryEscape(token))
	name := acc.FullName
	if name == "" {
		name = DefaultFullName
	}

	if err := s.mailer.SendPasswordReset(ctx, acc.Email, name, link); err != nil {
		return fmt.Errorf("queue reset email: %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets the new password and signs the user out everywhere.
func (s *service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	userID, err := s.sessions.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeAll(ctx, userID)
	if err != nil {
		logger.Warn("Failed to revoke sessions after password reset", "user_id", userID, "error", err)
		return nil
	}
	for _, id := range revoked {
		s.publish(ctx, session.EventSignedOut, &session.Session{ID: id, UserID: userID})
	}
	return nil
}

func (s *service) SignInOAuth(ctx context.Context, provider string, identity OAuthIdentity) (*AuthResponse, error) {
	acc, err := s.repo.FindAccountByProvider(ctx, provider, identity.Subject)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if acc == nil {
		acc, err = s.repo.FindAccountByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			if err := s.repo.LinkProvider(ctx, acc.ID, provider, identity.Subject); err != nil {
				return nil, err
			}
		case errors.Is(err, ErrUserNotFound):
			acc, err = s.repo.CreateOAuthAccount(ctx, identity.Email, provider, identity.Subject, identity.FullName, auth.RoleUser)
			if err != nil {
				return nil, err
			}
			logger.Info("Account created", "user_id", acc.ID, "provider", provider)
		default:
			return nil, err
		}
	}

	avatar := identity.AvatarURL
	if avatar == "" {
		avatar = DefaultAvatarURL
	}
	if _, err := s.repo.CreateProfile(ctx, s.profileFor(acc, CreateProfileRequest{AvatarURL: avatar})); err != nil {
		logger.Warn("Failed to create profile for OAuth account", "user_id", acc.ID, "error", err)
	}

	return s.startSession(ctx, acc)
}

func (s *service) GetProfile(ctx context.Context, id int) (*User, error) {
	return s.repo.GetProfile(ctx, id)
}

func (s *service) CreateProfile(ctx context.Context, accountID int, req CreateProfileRequest) (*User, error) {
	acc, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateProfile(ctx, s.profileFor(acc, req))
}

func (s *service) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	return s.repo.UpdateProfile(ctx, id, req)
}

func (s *service) profileFor(acc *Account, req CreateProfileRequest) *User {
	p := &User{
		ID:          acc.ID,
		Email:       acc.Email,
		FullName:    req.FullName,
		Phone:       req.Phone,
		AvatarURL:   req.AvatarURL,
		Role:        acc.Role,
		MemberSince: acc.CreatedAt,
	}
	if p.FullName == "" {
		p.FullName = acc.FullName
	}
	if p.FullName == "" {
		p.FullName = DefaultFullName
	}
	if p.AvatarURL == "" {
		p.AvatarURL = DefaultAvatarURL
	}
	return p
}

func (s *service) publish(ctx context.Context, eventType string, sess *session.Session) {
	if err := s.sessions.Publish(ctx, eventType, sess); err != nil {
		logger.Warn("Auth event not delivered", "event", eventType, "user_id", sess.UserID)
	}
}

package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitconnect/internal/logger"
	"fitconnect/internal/user"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	stateTTL    = 10 * time.Minute
	statePrefix = "oauth_state:"
)

var (
	ErrUnknownProvider   = errors.New("unknown oauth provider")
	ErrInvalidState      = errors.New("oauth state is invalid or expired")
	ErrIncompleteProfile = errors.New("provider did not return an id and e-mail")
)

type SignIn interface {
	SignInOAuth(ctx context.Context, provider string, identity user.OAuthIdentity) (*user.AuthResponse, error)
}

type Service struct {
	providers map[string]*Provider
	redis     *redis.Client
	users     SignIn
	newState  func() string
}

// NewService registers the given providers. Providers without a client id
// are skipped so unconfigured ones answer as unknown.
func NewService(rdb *redis.Client, users SignIn, providers ...*Provider) *Service {
	s := &Service{
		providers: make(map[string]*Provider, len(providers)),
		redis:     rdb,
		users:     users,
		newState:  uuid.NewString,
	}
	for _, p := range providers {
		if p.Config.ClientID == "" {
			continue
		}
		s.providers[p.Name] = p
	}
	return s
}

func (s *Service) Enabled(name string) bool {
	_, ok := s.providers[name]
	return ok
}

// AuthURL starts a sign-in. redirectTo, if set, is where the callback sends
// the browser once the session exists.
func (s *Service) AuthURL(ctx context.Context, provider, redirectTo string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	state := s.newState()
	if err := s.redis.Set(ctx, statePrefix+state, redirectTo, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	return p.Config.AuthCodeURL(state), nil
}

// Callback finishes a sign-in and returns the new session together with the
// redirect target stored by AuthURL.
func (s *Service) Callback(ctx context.Context, provider, state, code string) (*user.AuthResponse, string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, "", ErrUnknownProvider
	}

	redirectTo, err := s.redis.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrInvalidState
	}
	if err != nil {
		return nil, "", fmt.Errorf("load oauth state: %w", err)
	}

	identity, err := p.Identity(ctx, code)
	if err != nil {
		logger.Warn("OAuth identity lookup failed", "provider", provider, "error", err)
		return nil, "", err
	}

	resp, err := s.users.SignInOAuth(ctx, provider, identity)
	if err != nil {
		return nil, "", err
	}

	logger.Info("OAuth sign-in", "provider", provider, "user_id", resp.User.ID)
	return resp, redirectTo, nil
}

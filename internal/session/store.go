package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fitconnect/internal/logger"
	"fitconnect/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EventSignedIn       = "SIGNED_IN"
	EventTokenRefreshed = "TOKEN_REFRESHED"
	EventSignedOut      = "SIGNED_OUT"
)

const (
	sessionPrefix = "session:"
	userSetPrefix = "user_sessions:"
	resetPrefix   = "reset:"

	// EventChannelPrefix is followed by the user id.
	EventChannelPrefix = "auth_events:"

	ResetTokenTTL = time.Hour
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
)

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Event struct {
	Type      string    `json:"event"`
	SessionID string    `json:"session_id"`
	UserID    int       `json:"user_id"`
	At        time.Time `json:"at"`
}

// Store keeps server-side sessions in Redis. A session lives under
// session:<id> for the lifetime of its refresh token; deleting the key
// invalidates every access token carrying that id.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
	newID func() string
	now   func() time.Time
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		redis: rdb,
		ttl:   ttl,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func userSetKey(userID int) string {
	return userSetPrefix + strconv.Itoa(userID)
}

func ChannelFor(userID int) string {
	return EventChannelPrefix + strconv.Itoa(userID)
}

func (s *Store) Create(ctx context.Context, userID int, email, role string) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), string(data), s.ttl)
		pipe.SAdd(ctx, userSetKey(userID), sess.ID)
		pipe.Expire(ctx, userSetKey(userID), s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Debug("Session created", "session_id", sess.ID, "user_id", userID)
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) Active(ctx context.Context, id string) (bool, error) {
	n, err := s.redis.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Touch extends a live session to a full refresh lifetime.
func (s *Store) Touch(ctx context.Context, id string) error {
	ok, err := s.redis.Expire(ctx, sessionKey(id), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Revoke(ctx context.Context, userID int, id string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userSetKey(userID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll drops every session of the user and returns the revoked ids.
func (s *Store) RevokeAll(ctx context.Context, userID int) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSetKey(userID))

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return nil, fmt.Errorf("revoke sessions: %w", err)
	}
	return ids, nil
}

func (s *Store) Publish(ctx context.Context, eventType string, sess *Session) error {
	ev := Event{
		Type:      eventType,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		At:        s.now(),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := s.redis.Publish(ctx, ChannelFor(sess.UserID), string(data)).Err(); err != nil {
		logger.Warn("Failed to publish auth event", "event", eventType, "user_id", sess.UserID, "error", err)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	metrics.RecordAuthEvent(eventType)
	return nil
}

// Subscribe listens to the auth events of every user.
func (s *Store) Subscribe(ctx context.Context) *redis.PubSub {
	return s.redis.PSubscribe(ctx, EventChannelPrefix+"*")
}

func ParseEvent(payload string) (Event, error) {
	var ev Event
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}

func (s *Store) IssueResetToken(ctx context.Context, userID int) (string, error) {
	token := s.newID()
	if err := s.redis.Set(ctx, resetPrefix+token, strconv.Itoa(userID), ResetTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken returns the user the token was issued for. A token can be
// used once.
func (s *Store) ConsumeResetToken(ctx context.Context, token string) (int, error) {
	val, err := s.redis.GetDel(ctx, resetPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrResetTokenInvalid
		}
		return 0, fmt.Errorf("read reset token: %w", err)
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, ErrResetTokenInvalid
	}
	return userID, nil
}

package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates the presented token has no backing session.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager resolves bearer tokens against Redis-backed sessions
// and can mint tokens for seed tooling and tests.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type sessionPayload struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	if prefix == "" {
		prefix = "keystone:session"
	}
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// TokenFromRequest pulls the session token from the Authorization header
// or the session cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("keystone_session"); err == nil {
		return cookie.Value
	}
	return ""
}

// Resolve loads the actor for a token and slides the session TTL.
func (sm *SessionManager) Resolve(ctx context.Context, token string) (Actor, error) {
	if token == "" {
		return Actor{}, ErrSessionNotFound
	}

	raw, err := sm.client.Get(ctx, sm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Actor{}, ErrSessionNotFound
		}
		return Actor{}, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Actor{}, err
	}
	if payload.UserID == 0 {
		return Actor{}, ErrSessionNotFound
	}

	if sm.ttl > 0 {
		_ = sm.client.Expire(ctx, sm.key(token), sm.ttl).Err()
	}

	return Actor{
		ID:    payload.UserID,
		Name:  payload.Name,
		Email: payload.Email,
		Role:  Role(payload.Role),
	}, nil
}

// Issue mints a fresh token and stores the session behind it. Real logins
// go through the auth gateway; seed tooling and tests issue directly.
func (sm *SessionManager) Issue(ctx context.Context, actor Actor) (string, error) {
	token := uuid.NewString()
	if err := sm.Store(ctx, token, actor); err != nil {
		return "", err
	}
	return token, nil
}

// Store writes a session payload, used by seeds and tests.
func (sm *SessionManager) Store(ctx context.Context, token string, actor Actor) error {
	payload, err := json.Marshal(sessionPayload{
		UserID: actor.ID,
		Name:   actor.Name,
		Email:  actor.Email,
		Role:   string(actor.Role),
	})
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, sm.key(token), payload, sm.ttl).Err()
}

// Destroy removes a session.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	err := sm.client.Del(ctx, sm.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (sm *SessionManager) key(token string) string {
	return sm.prefix + ":" + token
}

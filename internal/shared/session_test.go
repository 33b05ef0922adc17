package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test:session", time.Minute), mr
}

func TestIssueReturnsResolvableToken(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	actor := Actor{ID: 7, Name: "Asha", Email: "asha@example.com", Role: RoleManager}
	token, err := sm.Issue(ctx, actor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := sm.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, actor, resolved)
}

func TestIssueMintsDistinctTokens(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	actor := Actor{ID: 7, Name: "Asha", Email: "asha@example.com", Role: RoleManager}
	first, err := sm.Issue(ctx, actor)
	require.NoError(t, err)
	second, err := sm.Issue(ctx, actor)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestResolveUnknownToken(t *testing.T) {
	sm, _ := newTestSessions(t)

	_, err := sm.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResolveAfterExpiry(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Issue(ctx, Actor{ID: 3, Name: "Ravi", Role: RoleSales})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = sm.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDestroyRemovesSession(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Issue(ctx, Actor{ID: 3, Name: "Ravi", Role: RoleSales})
	require.NoError(t, err)
	require.NoError(t, sm.Destroy(ctx, token))

	_, err = sm.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

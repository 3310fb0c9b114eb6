package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority(t *testing.T, set RevocationSet) (*Authority, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	if set == nil {
		ms := NewMemoryRevocationSet()
		ms.now = clock
		set = ms
	}
	a := NewAuthority("test-secret", time.Hour, "postjournal", set)
	a.SetClock(clock)
	return a, &now
}

func TestAuthority_IssueValidate(t *testing.T) {
	a, _ := newTestAuthority(t, nil)
	ctx := context.Background()

	tok, exp, err := a.Issue(Claims{UserID: "u1", Username: "alice", Email: "a@x.com"}, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), exp)

	c, err := a.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "a@x.com", c.Email)
	assert.NotEmpty(t, c.TokenID)
}

func TestAuthority_Expired(t *testing.T) {
	a, now := newTestAuthority(t, nil)
	tok, _, err := a.Issue(Claims{UserID: "u1"}, time.Minute)
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	_, err = a.Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthority_Invalid(t *testing.T) {
	a, _ := newTestAuthority(t, nil)
	other := NewAuthority("other-secret", time.Hour, "postjournal", nil)
	tok, _, err := other.Issue(Claims{UserID: "u1"}, 0)
	require.NoError(t, err)

	for _, raw := range []string{"", "garbage", tok, tok + "x"} {
		_, err := a.Validate(context.Background(), raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, raw)
		assert.ErrorIs(t, err, ErrUnauthorized, raw)
	}
}

func TestAuthority_RevokeBeforeSignatureCheck(t *testing.T) {
	a, _ := newTestAuthority(t, nil)
	ctx := context.Background()

	require.NoError(t, a.Revoke(ctx, "garbage"))
	_, err := a.Validate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthority_RevokeLastsForNaturalLifetime(t *testing.T) {
	set := NewMemoryRevocationSet()
	a, now := newTestAuthority(t, set)
	set.now = a.now
	ctx := context.Background()

	tok, _, err := a.Issue(Claims{UserID: "u1"}, 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.Revoke(ctx, tok))

	_, err = a.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// 自然过期后条目被清理，令牌仍然因过期被拒绝
	*now = now.Add(11 * time.Minute)
	_, err = a.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, 0, set.Len())
}

func TestAuthority_OtherTokensUnaffected(t *testing.T) {
	a, _ := newTestAuthority(t, nil)
	ctx := context.Background()

	t1, _, err := a.Issue(Claims{UserID: "u1"}, 0)
	require.NoError(t, err)
	t2, _, err := a.Issue(Claims{UserID: "u1"}, 0)
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)

	require.NoError(t, a.Revoke(ctx, t1))
	_, err = a.Validate(ctx, t2)
	assert.NoError(t, err)
}

func TestRedisRevocationSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	set := NewRedisRevocationSet(client)
	a, _ := newTestAuthority(t, set)
	set.now = a.now
	ctx := context.Background()

	tok, _, err := a.Issue(Claims{UserID: "u1"}, 30*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.Revoke(ctx, tok))

	_, err = a.Validate(ctx, tok)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Equal(t, 30*time.Minute, mr.TTL(revokedKey(tok)))

	mr.FastForward(31 * time.Minute)
	ok, err := set.Contains(ctx, tok)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRevocationSet_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	mr.Close()

	a, _ := newTestAuthority(t, NewRedisRevocationSet(client))
	tok, _, err := a.Issue(Claims{UserID: "u1"}, 0)
	require.NoError(t, err)

	_, err = a.Validate(context.Background(), tok)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Token: "t"})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}

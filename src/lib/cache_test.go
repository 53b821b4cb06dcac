package lib

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

type cachedBug struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	mock.ExpectGet("opsdesk:bugs:gen").SetVal("3")
	mock.ExpectGet("opsdesk:bugs:g3:detail:7").SetVal(`{"id":7,"title":"crash on save"}`)

	var got cachedBug
	ok := c.Get(context.Background(), "bugs", "detail:7", &got)
	assert.True(t, ok)
	assert.Equal(t, "crash on save", got.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMissWithoutGeneration(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	mock.ExpectGet("opsdesk:bugs:gen").RedisNil()
	mock.ExpectGet("opsdesk:bugs:g0:detail:7").RedisNil()

	var got cachedBug
	assert.False(t, c.Get(context.Background(), "bugs", "detail:7", &got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSetUsesTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	mock.ExpectGet("opsdesk:projects:gen").SetVal("1")
	mock.ExpectSet("opsdesk:projects:g1:detail:2", []byte(`{"id":2,"title":"x"}`), 30*time.Second).SetVal("OK")

	c.Set(context.Background(), "projects", "detail:2", cachedBug{ID: 2, Title: "x"})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateBumpsGeneration(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	mock.ExpectIncr("opsdesk:assets:gen").SetVal(5)
	c.Invalidate(context.Background(), "assets")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilClientIsNoop(t *testing.T) {
	c := NewCache(nil, time.Second)
	var got cachedBug
	assert.False(t, c.Get(context.Background(), "bugs", "list", &got))
	c.Set(context.Background(), "bugs", "list", got)
	c.Invalidate(context.Background(), "bugs")

	var none *Cache
	assert.False(t, none.Get(context.Background(), "bugs", "list", &got))
}

func TestRevokedTokens(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	mock.ExpectExists("opsdesk:revoked:abc").SetVal(1)
	mock.ExpectExists("opsdesk:revoked:def").SetVal(0)

	assert.True(t, c.TokenRevoked(context.Background(), "abc"))
	assert.False(t, c.TokenRevoked(context.Background(), "def"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewCache(rdb, 30*time.Second)

	assert.NoError(t, c.RevokeToken(context.Background(), "abc", time.Now().Add(-time.Minute)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeWithoutRedis(t *testing.T) {
	c := NewCache(nil, time.Second)
	ctx := context.Background()

	assert.False(t, c.TokenRevoked(ctx, "local-1"))
	assert.NoError(t, c.RevokeToken(ctx, "local-1", time.Now().Add(time.Hour)))
	assert.True(t, c.TokenRevoked(ctx, "local-1"))
	assert.False(t, c.TokenRevoked(ctx, "local-2"))

	assert.ErrorIs(t, c.RevokeToken(ctx, "", time.Now().Add(time.Hour)), ErrNoTokenID)
	assert.False(t, revokedLocally("local-1", time.Now().Add(2*time.Hour)))
}

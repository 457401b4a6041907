package storecache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type snapshot struct {
	Names []string `json:"names"`
}

func newTestCache(t *testing.T) (*Cache, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, zap.NewNop())
	c.pause = 0
	return c, mock
}

func TestGetJSON_FreshHit(t *testing.T) {
	c, mock := newTestCache(t)

	want := snapshot{Names: []string{"alice"}}
	payload, _ := json.Marshal(want)
	mock.ExpectGet("cache:test").SetVal(string(payload))

	var got snapshot
	err := c.GetJSON(context.Background(), "cache:test", &got, func(ctx context.Context) (any, error) {
		t.Fatal("load must not run on a fresh hit")
		return nil, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJSON_MissLoadsAndCaches(t *testing.T) {
	c, mock := newTestCache(t)

	want := snapshot{Names: []string{"alice", "bob"}}
	payload, _ := json.Marshal(want)

	mock.ExpectGet("cache:test").RedisNil()
	mock.ExpectSet("cache:test", payload, 5*time.Second).SetVal("OK")
	mock.ExpectSet("stale:cache:test", payload, 0).SetVal("OK")

	calls := 0
	var got snapshot
	err := c.GetJSON(context.Background(), "cache:test", &got, func(ctx context.Context) (any, error) {
		calls++
		return want, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJSON_StaleFallbackAfterRetries(t *testing.T) {
	c, mock := newTestCache(t)

	stale := snapshot{Names: []string{"cached-earlier"}}
	payload, _ := json.Marshal(stale)

	mock.ExpectGet("cache:test").RedisNil()
	mock.ExpectGet("stale:cache:test").SetVal(string(payload))

	calls := 0
	var got snapshot
	err := c.GetJSON(context.Background(), "cache:test", &got, func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("storage down")
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls, "load retried three times before falling back")
	assert.Equal(t, stale, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJSON_FirstEverReadFailureIsEmpty(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectGet("cache:test").RedisNil()
	mock.ExpectGet("stale:cache:test").RedisNil()

	var got snapshot
	err := c.GetJSON(context.Background(), "cache:test", &got, func(ctx context.Context) (any, error) {
		return nil, errors.New("storage down")
	})

	assert.NoError(t, err)
	assert.Empty(t, got.Names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidate(t *testing.T) {
	c, mock := newTestCache(t)

	mock.ExpectDel(UsersKey, RecordsKey).SetVal(2)
	c.Invalidate(context.Background(), UsersKey, RecordsKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

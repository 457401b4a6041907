package userlock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestAcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := New(rdb)

	mock.Regexp().ExpectSetNX("lock:user:u1", `.+`, 30*time.Second).SetVal(true)
	// Release runs the compare-and-del script with this holder's token, not
	// a blind DEL.
	mock.Regexp().ExpectEvalSha(releaseScript.Hash(), []string{"lock:user:u1"}, `.+`).SetVal(int64(1))

	release, err := l.Acquire(context.Background(), "u1")
	assert.NoError(t, err)
	assert.NotNil(t, release)

	release()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireBusy(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := New(rdb)

	mock.Regexp().ExpectSetNX("lock:user:u1", `.+`, 30*time.Second).SetVal(false)

	release, err := l.Acquire(context.Background(), "u1")
	assert.Nil(t, release)
	assert.ErrorIs(t, err, ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireWithoutRedisIsNoop(t *testing.T) {
	l := New(nil)

	release, err := l.Acquire(context.Background(), "u1")
	assert.NoError(t, err)
	assert.NotNil(t, release)
	release()
}

package userlock

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/murabitopit/attendance-app/internal/shared/apperror"
)

const (
	keyPrefix = "lock:user:"
	// Short expiry so a crashed holder cannot wedge a user forever.
	lockTTL = 30 * time.Second
)

// ErrBusy is returned when another operation already holds the user's lock.
var ErrBusy = apperror.New(
	apperror.CodeConflict,
	"another operation for this user is in progress, try again",
	http.StatusConflict,
)

// releaseScript deletes the lock only when it still holds our token. A
// holder that outlived the TTL must not drop its successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker serializes read-modify-write sequences (balance consumption, admin
// adjustment, reconciliation) per user id with a redis SetNX lock, so two
// concurrent flows cannot interleave their check-then-write steps for the
// same user.
type Locker struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

// Acquire takes the lock for userID and returns its release func. Without a
// redis client the lock degrades to a no-op (single-process deployments and
// tests).
func (l *Locker) Acquire(ctx context.Context, userID string) (func(), error) {
	if l.rdb == nil {
		return func() {}, nil
	}

	key := keyPrefix + userID
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}

	release := func() {
		// Release must not inherit a canceled request context.
		releaseScript.Run(context.Background(), l.rdb, []string{key}, token)
	}
	return release, nil
}

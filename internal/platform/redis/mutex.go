package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sglgb/pkg/platform/sentinel"
)

// Mutex serializes workflow operations per assessment across processes using
// SET NX with a TTL. The TTL bounds lock leakage if a holder crashes; unlock
// only deletes the key when the holder's token still matches.
type Mutex struct {
	client *Client
	ttl    time.Duration
}

// NewMutex builds a distributed mutex with the given lock TTL.
func NewMutex(client *Client, ttl time.Duration) *Mutex {
	return &Mutex{client: client, ttl: ttl}
}

// unlockScript releases the lock only if the caller still holds it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the lock for key, returning a release function. Returns
// sentinel.ErrLocked when another holder has the lock.
func (m *Mutex) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := m.client.SetNX(ctx, "lock:"+key, token, m.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}
	release := func() {
		// Best effort; the TTL reclaims the lock if this fails.
		_ = unlockScript.Run(context.Background(), m.client, []string{"lock:" + key}, token).Err()
	}
	return release, nil
}

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

const (
	keyPrefix     = "videotube:lock:"
	retryInterval = 25 * time.Millisecond
	unlockTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ model.Locker = (*Redis)(nil)

// Redis is a lease based lock shared by every replica using the same Redis.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedis creates a Redis lock whose leases expire after ttl.
func NewRedis(client redis.UniversalClient, ttl time.Duration, logger *logger.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Lock polls until the lease for key is taken or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return r.unlockFunc(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Redis) unlockFunc(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("Lock: failed to release redis lock",
				"key", redisKey,
				"error", err.Error())
		}
	}
}

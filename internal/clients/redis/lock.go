package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/studyarc/resourcebank-backend/internal/platform/envutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// LockService provides the differential-sync mutual exclusion lease. A lock
// is a SET NX key with a TTL; extend and release both compare the token so an
// expired holder cannot touch a newer lease.
type LockService interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Extend(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}

type lockService struct {
	log    *logger.Logger
	client *goredis.Client
}

func NewLockService(log *logger.Logger) (LockService, error) {
	addr := envutil.String("REDIS_ADDR", "localhost:6379")
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
	})
	return &lockService{
		log:    log.With("service", "LockService"),
		client: client,
	}, nil
}

func (s *lockService) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(name), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", name, err)
	}
	return ok, nil
}

var extendScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// Extend pushes the TTL forward while the caller still holds the lease.
// Returns false when the lease has expired or changed hands.
func (s *lockService) Extend(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, s.client, []string{lockKey(name)}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("extend lock %q: %w", name, err)
	}
	return res == 1, nil
}

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (s *lockService) Release(ctx context.Context, name, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{lockKey(name)}, token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("release lock %q: %w", name, err)
	}
	return nil
}

func lockKey(name string) string { return "resourcebank:lock:" + name }

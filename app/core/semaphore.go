package core

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Semaphore bounds how many embedding calls run at once across the
// whole deployment.
type Semaphore interface {
	TryAcquire() bool
	Acquire(ctx context.Context) error
	Release()
}

// DistributedSemaphore counts permits in redis so the bound holds
// across replicas. Permits expire with the key, a crashed holder can
// not leak them forever.
type DistributedSemaphore struct {
	redis      redis.UniversalClient
	key        string
	maxPermits int
	timeout    time.Duration
}

func NewDistributedSemaphore(redis redis.UniversalClient, key string, maxPermits int, timeout time.Duration) *DistributedSemaphore {
	return &DistributedSemaphore{
		redis:      redis,
		key:        key,
		maxPermits: maxPermits,
		timeout:    timeout,
	}
}

func (s *DistributedSemaphore) TryAcquire() bool {
	ctx := context.Background()

	script := `
		local key = KEYS[1]
		local max_permits = tonumber(ARGV[1])
		local timeout = tonumber(ARGV[2])

		local current = tonumber(redis.call('GET', key) or '0')

		if current < max_permits then
			redis.call('INCR', key)
			redis.call('EXPIRE', key, timeout)
			return 1
		else
			return 0
		end
	`

	result, err := s.redis.Eval(ctx, script, []string{s.key}, s.maxPermits, int(s.timeout.Seconds())).Int()
	if err != nil {
		return false
	}

	return result == 1
}

func (s *DistributedSemaphore) Release() {
	ctx := context.Background()

	script := `
		local key = KEYS[1]
		local current = tonumber(redis.call('GET', key) or '0')

		if current > 0 then
			redis.call('DECR', key)
			return 1
		else
			return 0
		end
	`

	s.redis.Eval(ctx, script, []string{s.key})
}

// Acquire blocks until a permit is free or ctx is done.
func (s *DistributedSemaphore) Acquire(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// localSemaphore is the single-process fallback used when redis is not
// configured.
type localSemaphore struct {
	permits chan struct{}
}

func newLocalSemaphore(maxPermits int) *localSemaphore {
	return &localSemaphore{
		permits: make(chan struct{}, maxPermits),
	}
}

func (s *localSemaphore) Acquire(ctx context.Context) error {
	select {
	case s.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *localSemaphore) TryAcquire() bool {
	select {
	case s.permits <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *localSemaphore) Release() {
	select {
	case <-s.permits:
	default:
	}
}

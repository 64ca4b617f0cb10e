package auth

import (
	"context"
	"strconv"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const retryKeyPrefix = "retries"

// MemoryRetryCounterStore is a process-local RetryCounterStore for tests
// and single-node deployments.
type MemoryRetryCounterStore struct {
	mu     sync.RWMutex
	counts map[string]int
}

var _ RetryCounterStore = (*MemoryRetryCounterStore)(nil)

func NewMemoryRetryCounterStore() *MemoryRetryCounterStore {
	return &MemoryRetryCounterStore{counts: map[string]int{}}
}

func (s *MemoryRetryCounterStore) Get(_ context.Context, usernameUpper string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count, ok := s.counts[usernameUpper]
	return count, ok, nil
}

func (s *MemoryRetryCounterStore) Put(_ context.Context, usernameUpper string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[usernameUpper] = count
	return nil
}

// RedisRetryCounterStore keeps retry counters in Redis so lockout state
// survives restarts and is shared across instances. Writes are plain
// SETs: two racing writers leave whichever value landed last, matching
// the relational store's semantics.
type RedisRetryCounterStore struct {
	redis  *redis.Client
	prefix string
}

var _ RetryCounterStore = (*RedisRetryCounterStore)(nil)

func NewRedisRetryCounterStore(client *redis.Client) *RedisRetryCounterStore {
	return &RedisRetryCounterStore{
		redis:  client,
		prefix: retryKeyPrefix,
	}
}

func (s *RedisRetryCounterStore) key(usernameUpper string) string {
	return s.prefix + ":" + usernameUpper
}

func (s *RedisRetryCounterStore) Get(ctx context.Context, usernameUpper string) (int, bool, error) {
	val, err := s.redis.Get(ctx, s.key(usernameUpper)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, goerrors.Wrap(err, goerrors.CategoryOperation, "retry store read failed")
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		// Treat a corrupt value as absent; the next write repairs it.
		return 0, false, nil
	}
	return count, true, nil
}

func (s *RedisRetryCounterStore) Put(ctx context.Context, usernameUpper string, count int) error {
	if err := s.redis.Set(ctx, s.key(usernameUpper), strconv.Itoa(count), 0).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "retry store write failed")
	}
	return nil
}

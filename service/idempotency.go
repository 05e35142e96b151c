package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which document a (tenant, Idempotency-Key)
// pair produced, so a retried generate request replays the first result.
type IdempotencyStore interface {
	Lookup(ctx context.Context, tenant, key string) (documentID string, found bool, err error)
	Save(ctx context.Context, tenant, key, documentID string) error
}

func idempotencyKey(tenant, key string) string {
	return fmt.Sprintf("docsign:idem:%s:%s", tenant, key)
}

type idempotencyEntry struct {
	documentID string
	createdAt  time.Time
}

// MemoryIdempotencyStore keeps keys in process memory. It is used when no
// Redis address is configured and does not survive restarts.
type MemoryIdempotencyStore struct {
	entries    map[string]idempotencyEntry
	mu         sync.RWMutex
	maxEntries int // 0 = unlimited
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryIdempotencyStore(maxEntries int, ttl time.Duration) *MemoryIdempotencyStore {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &MemoryIdempotencyStore{
		entries:    make(map[string]idempotencyEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *MemoryIdempotencyStore) Lookup(_ context.Context, tenant, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[idempotencyKey(tenant, key)]
	if !ok || s.expired(e) {
		return "", false, nil
	}
	return e.documentID, true, nil
}

// Save keeps the first document recorded for a key.
func (s *MemoryIdempotencyStore) Save(_ context.Context, tenant, key, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idempotencyKey(tenant, key)
	if e, ok := s.entries[k]; ok && !s.expired(e) {
		return nil
	}
	s.entries[k] = idempotencyEntry{documentID: documentID, createdAt: s.now()}

	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryIdempotencyStore) expired(e idempotencyEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.createdAt) > s.ttl
}

// cleanupIfNeeded drops expired keys, then the oldest ones above maxEntries.
// Must be called with lock held
func (s *MemoryIdempotencyStore) cleanupIfNeeded() {
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
		}
	}
	if s.maxEntries <= 0 || len(s.entries) <= s.maxEntries {
		return
	}

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.entries[keys[i]].createdAt.Before(s.entries[keys[j]].createdAt)
	})

	removeCount := len(keys) - s.maxEntries
	for i := 0; i < removeCount; i++ {
		slog.Debug("evicting idempotency key", "key", keys[i])
		delete(s.entries, keys[i])
	}
}

// Count returns the number of keys held, expired ones included.
func (s *MemoryIdempotencyStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RedisIdempotencyStore shares keys between service instances.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, tenant, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, idempotencyKey(tenant, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return val, true, nil
}

// Save uses SETNX so the first document stored under a key stays cached.
// Concurrent generations with one key are resolved by the record table.
func (s *RedisIdempotencyStore) Save(ctx context.Context, tenant, key, documentID string) error {
	if err := s.client.SetNX(ctx, idempotencyKey(tenant, key), documentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

var (
	_ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
	_ IdempotencyStore = (*RedisIdempotencyStore)(nil)
)

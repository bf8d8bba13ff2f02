package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore records processed event IDs so redelivered messages can
// be skipped. Implementations must be safe for concurrent use.
type IdempotencyStore interface {
	// Contains reports whether the event ID has already been processed.
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add marks an event ID as processed after successful handling.
	Add(ctx context.Context, eventID string) error
}

// MemoryIdempotencyStore is an in-memory IdempotencyStore for development
// and single-instance deployments. Entries expire lazily after the TTL.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
}

// NewMemoryIdempotencyStore creates an in-memory store with the given TTL.
func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Contains checks for a non-expired entry.
func (s *MemoryIdempotencyStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	ts, exists := s.entries[eventID]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if time.Since(ts) > s.ttl {
		s.mu.Lock()
		delete(s.entries, eventID)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Add records the event ID with the current timestamp.
func (s *MemoryIdempotencyStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.entries[eventID] = time.Now()
	s.mu.Unlock()
	return nil
}

// RedisIdempotencyStore is a Redis-backed IdempotencyStore for multi-instance
// deployments where consumers of the same group may fail over across pods.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed store. Keys are prefixed
// and expire after the TTL.
func NewRedisIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, eventID)
}

// Contains checks Redis for the event ID.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency exists: %w", err)
	}
	return n > 0, nil
}

// Add stores the event ID with the configured TTL.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.key(eventID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency set: %w", err)
	}
	return nil
}

// IdempotentHandler wraps a handler with deduplication. Store lookup
// failures fall through to processing rather than risking data loss.
func IdempotentHandler(store IdempotencyStore, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		seen, err := store.Contains(ctx, event.EventID)
		if err != nil {
			logger.Warn("idempotency lookup failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}

		if seen {
			logger.Debug("skipping duplicate event",
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
			)
			return nil
		}

		if err := inner(ctx, event); err != nil {
			return err
		}

		if addErr := store.Add(ctx, event.EventID); addErr != nil {
			logger.Warn("failed to record processed event",
				slog.String("event_id", event.EventID),
				slog.String("error", addErr.Error()),
			)
		}

		return nil
	}
}

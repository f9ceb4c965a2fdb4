package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store marks keys as seen for a bounded time using SETNX.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key identifies a consumed Kafka message.
func (s *Store) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// DeliveryKey identifies an inbound webhook delivery by provider and body digest.
func (s *Store) DeliveryKey(provider string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("idem:webhook:%s:%s", provider, hex.EncodeToString(sum[:]))
}

// Seen records key and reports whether it was already recorded.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Release forgets key so the next delivery is processed again.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Remember replaces the value of an existing key without touching its TTL.
func (s *Store) Remember(ctx context.Context, key, value string) error {
	return s.rdb.SetArgs(ctx, key, value, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
}

// Recall returns the value stored under key, or "" when the key is absent.
func (s *Store) Recall(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

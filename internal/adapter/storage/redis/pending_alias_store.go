package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PendingAliasStore implements ports.PendingAliasStore using Redis. It
// mirrors in-flight alias batches keyed by correlation id so stuck batches
// stay inspectable while the request is pending. The TTL matches the alias
// channel's pending TTL, so abandoned entries age out on their own.
type PendingAliasStore struct {
	client *goredis.Client
	prefix string
}

// NewPendingAliasStore creates a new Redis-backed pending alias store.
func NewPendingAliasStore(client *goredis.Client) *PendingAliasStore {
	return &PendingAliasStore{
		client: client,
		prefix: "pending_alias:",
	}
}

// Set records the merchant ids of one in-flight batch.
func (s *PendingAliasStore) Set(ctx context.Context, correlationID string, merchantIDs []int64, ttl time.Duration) error {
	payload, err := json.Marshal(merchantIDs)
	if err != nil {
		return fmt.Errorf("marshal pending batch: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+correlationID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis pending alias set: %w", err)
	}
	return nil
}

// Get returns the merchant ids of a pending batch.
// Returns nil, nil if the correlation id is unknown.
func (s *PendingAliasStore) Get(ctx context.Context, correlationID string) ([]int64, error) {
	val, err := s.client.Get(ctx, s.prefix+correlationID).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis pending alias get: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(val, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal pending batch: %w", err)
	}
	return ids, nil
}

// Delete removes a settled batch.
func (s *PendingAliasStore) Delete(ctx context.Context, correlationID string) error {
	if err := s.client.Del(ctx, s.prefix+correlationID).Err(); err != nil {
		return fmt.Errorf("redis pending alias delete: %w", err)
	}
	return nil
}

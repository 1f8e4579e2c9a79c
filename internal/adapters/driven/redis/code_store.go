package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AuthorizationCodeStore = (*CodeStore)(nil)

// codePrefix namespaces authorization codes in Redis
const codePrefix = "authcode:"

// CodeStore implements driven.AuthorizationCodeStore using Redis.
// Codes use Redis TTL for automatic expiration.
type CodeStore struct {
	client *redis.Client
}

// NewCodeStore creates a new Redis-backed CodeStore
func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

// Save stores a code with TTL based on ExpiresAt
func (s *CodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		// Already expired, don't save
		return nil
	}

	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	if err := s.client.Set(ctx, codePrefix+code.Code, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save authorization code: %w", err)
	}
	return nil
}

// Consume reads and deletes the code in one transaction so it can be
// redeemed only once.
func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	key := codePrefix + code

	pipe := s.client.TxPipeline()
	get := pipe.Get(ctx, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to consume authorization code: %w", err)
	}

	data, err := get.Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	var stored domain.AuthorizationCode
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}

	// Double-check expiration
	if stored.IsExpired() {
		return nil, nil
	}
	return &stored, nil
}

// Cleanup is a no-op; Redis expires codes on its own.
func (s *CodeStore) Cleanup(ctx context.Context) error {
	return nil
}

// Ping checks the Redis connection.
func (s *CodeStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

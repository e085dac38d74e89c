// Package service provides collaborators of webhook processing.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CompletionCache remembers references whose transaction is completed so provider
// retries resolve as duplicates without locking the order. The database stays the
// source of truth; a miss only means the slower path runs.
type CompletionCache interface {
	IsCompleted(ctx context.Context, reference string) (bool, error)
	MarkCompleted(ctx context.Context, reference string) error
}

type redisCompletionCache struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
}

// NewRedisCompletionCache creates a CompletionCache backed by Redis. Keys are
// "<namespace>:completed:<reference>" and expire after ttl.
func NewRedisCompletionCache(client redis.Cmdable, namespace string, ttl time.Duration) CompletionCache {
	return &redisCompletionCache{client: client, namespace: namespace, ttl: ttl}
}

func (c *redisCompletionCache) key(reference string) string {
	return fmt.Sprintf("%s:completed:%s", c.namespace, reference)
}

// IsCompleted reports whether reference was marked completed.
func (c *redisCompletionCache) IsCompleted(ctx context.Context, reference string) (bool, error) {
	_, err := c.client.Get(ctx, c.key(reference)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read completion cache: %w", err)
	}
	return true, nil
}

// MarkCompleted records reference as completed.
func (c *redisCompletionCache) MarkCompleted(ctx context.Context, reference string) error {
	if err := c.client.Set(ctx, c.key(reference), time.Now().UTC().Format(time.RFC3339), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write completion cache: %w", err)
	}
	return nil
}

type noOpCompletionCache struct{}

// NewNoOpCompletionCache creates a CompletionCache that never hits.
func NewNoOpCompletionCache() CompletionCache {
	return noOpCompletionCache{}
}

// IsCompleted always reports a miss.
func (noOpCompletionCache) IsCompleted(context.Context, string) (bool, error) {
	return false, nil
}

// MarkCompleted does nothing.
func (noOpCompletionCache) MarkCompleted(context.Context, string) error {
	return nil
}

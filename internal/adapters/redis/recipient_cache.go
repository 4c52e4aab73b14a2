// Package redis provides Redis-based adapters for the notifier.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/gha-notifier/internal/core"
	"github.com/target/gha-notifier/internal/domain/model"
)

// DefaultRecipientPrefix namespaces recipient cache keys.
const DefaultRecipientPrefix = "gha-notifier:recipient:"

var _ core.RecipientCache = (*RecipientCache)(nil)

// RecipientCache is a Redis-backed core.RecipientCache shared by every replica.
// Negative lookups are stored as an empty recipient and expire with the same TTL.
type RecipientCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRecipientCache creates a cache using the default key prefix.
func NewRecipientCache(client redis.UniversalClient) *RecipientCache {
	return NewRecipientCacheWithPrefix(client, DefaultRecipientPrefix)
}

// NewRecipientCacheWithPrefix creates a cache with a custom key prefix.
func NewRecipientCacheWithPrefix(client redis.UniversalClient, prefix string) *RecipientCache {
	if prefix == "" {
		prefix = DefaultRecipientPrefix
	}
	return &RecipientCache{
		client: client,
		prefix: prefix,
	}
}

// Get returns the cached recipient for repo.
func (c *RecipientCache) Get(ctx context.Context, repo string) (model.Recipient, bool, error) {
	if repo == "" {
		return model.Recipient{}, false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+repo).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Recipient{}, false, nil
		}
		return model.Recipient{}, false, fmt.Errorf("redis get: %w", err)
	}

	var rec model.Recipient
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return model.Recipient{}, false, fmt.Errorf("unmarshal recipient: %w", unmarshalErr)
	}
	return rec, true, nil
}

// Set stores rec for repo. A ttl <= 0 stores the entry without expiry.
func (c *RecipientCache) Set(ctx context.Context, repo string, rec model.Recipient, ttl time.Duration) error {
	if repo == "" {
		return errors.New("repository cannot be empty")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recipient: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.prefix+repo, data, ttl).Err()
}

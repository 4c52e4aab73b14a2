package core

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/target/gha-notifier/internal/domain/model"
)

var _ RecipientCache = (*MemoryRecipientCache)(nil)

type cachedRecipient struct {
	rec       model.Recipient
	expiresAt time.Time
}

// MemoryRecipientCache is the in-process RecipientCache used when no Redis
// instance is configured. Expired entries are dropped lazily on read.
type MemoryRecipientCache struct {
	mu      sync.Mutex
	entries map[string]cachedRecipient
	now     func() time.Time
}

// NewMemoryRecipientCache creates an empty in-memory cache.
func NewMemoryRecipientCache() *MemoryRecipientCache {
	return &MemoryRecipientCache{
		entries: make(map[string]cachedRecipient),
		now:     time.Now,
	}
}

// Get returns the cached recipient for repo if present and not expired.
func (c *MemoryRecipientCache) Get(_ context.Context, repo string) (model.Recipient, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[repo]
	if !ok {
		return model.Recipient{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, repo)
		return model.Recipient{}, false, nil
	}
	return cloneRecipient(entry.rec), true, nil
}

// Set stores rec for repo; ttl <= 0 keeps it until process exit.
func (c *MemoryRecipientCache) Set(_ context.Context, repo string, rec model.Recipient, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cachedRecipient{rec: cloneRecipient(rec)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[repo] = entry
	return nil
}

func cloneRecipient(rec model.Recipient) model.Recipient {
	rec.Addresses = slices.Clone(rec.Addresses)
	return rec
}

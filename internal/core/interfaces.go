// Package core holds the ports shared between the notification service and
// its storage adapters, together with the in-process implementations.
package core

import (
	"context"
	"time"

	"github.com/target/gha-notifier/internal/domain/model"
)

// StatusStore records the last conclusion seen for each workflow id.
// Implementations must be safe for concurrent use; read-modify-write
// sequences are serialized by the caller.
type StatusStore interface {
	// Get returns the last recorded status and whether one exists.
	Get(workflowID string) (string, bool)
	// Set records status as the latest conclusion for workflowID.
	Set(workflowID, status string)
	// Snapshot returns a copy of every recorded status.
	Snapshot() map[string]string
}

// RecipientCache caches recipient lookups, including negative results
// (an empty Recipient means "known to have no recipient").
type RecipientCache interface {
	// Get returns the cached recipient and whether the key was present.
	Get(ctx context.Context, repo string) (model.Recipient, bool, error)
	// Set stores rec for repo. A ttl of 0 means no expiry.
	Set(ctx context.Context, repo string, rec model.Recipient, ttl time.Duration) error
}

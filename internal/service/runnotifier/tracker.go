package runnotifier

import (
	"sync"

	"github.com/target/gha-notifier/internal/core"
	"github.com/target/gha-notifier/internal/domain/model"
)

// Decision is the tracker's verdict for one observed run.
type Decision string

const (
	// DecisionNone records the status without notifying.
	DecisionNone Decision = "none"
	// DecisionFailure sends the failure notice.
	DecisionFailure Decision = "failure"
	// DecisionRecovery sends the recovery notice.
	DecisionRecovery Decision = "recovery"
)

// Notifies reports whether the decision results in a message.
func (d Decision) Notifies() bool {
	return d == DecisionFailure || d == DecisionRecovery
}

// Tracker detects failure and recovery transitions per workflow id.
type Tracker struct {
	mu    sync.Mutex
	store core.StatusStore
}

// NewTracker wraps store. A nil store gets a fresh in-memory table.
func NewTracker(store core.StatusStore) *Tracker {
	if store == nil {
		store = core.NewMemoryStatusStore(nil)
	}
	return &Tracker{store: store}
}

// Observe records status for workflowID and returns whether to notify.
// A failure always notifies. A success notifies only when a different status
// was recorded before; the first status ever seen is only a baseline.
func (t *Tracker) Observe(workflowID, status string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior, seen := t.store.Get(workflowID)

	decision := DecisionNone
	switch {
	case status == model.ConclusionFailure:
		decision = DecisionFailure
	case seen && prior != status && status == model.ConclusionSuccess:
		decision = DecisionRecovery
	}

	t.store.Set(workflowID, status)
	return decision
}

// Store exposes the underlying status table.
func (t *Tracker) Store() core.StatusStore {
	return t.store
}

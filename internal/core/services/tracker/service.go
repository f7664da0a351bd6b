package tracker

import "context"

// ITrackerService maintains the tracked-handle registry and runs the
// status poll loop over it.
type ITrackerService interface {
	// Reconcile synchronizes the registry against the full desired handle
	// set: absent handles are removed, new handles are initialized with
	// their current submission history. Idempotent.
	Reconcile(ctx context.Context, desired []string) error

	// GetHandles snapshots the current registry under the poll lock.
	GetHandles(ctx context.Context) ([]string, error)

	// UpdateStatusForever polls every tracked handle in a loop until the
	// context is cancelled.
	UpdateStatusForever(ctx context.Context)
}

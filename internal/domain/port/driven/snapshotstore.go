package driven

import (
	"context"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
)

// SnapshotStore defines the driven port for the append-only usage history.
// There is intentionally no update or delete operation: snapshots are the
// audit trail.
type SnapshotStore interface {
	// Append inserts one snapshot.
	Append(ctx context.Context, snap model.Snapshot) error

	// Query returns the snapshots for an organization with
	// from <= CollectedAt < to, ascending by CollectedAt. The result is a
	// pure function of stored state at call time; callers may re-query any
	// range any number of times.
	Query(ctx context.Context, orgID string, from, to time.Time) ([]model.Snapshot, error)
}

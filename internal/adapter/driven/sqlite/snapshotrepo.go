package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// SnapshotRepo is the SQLite implementation of the SnapshotStore port
// interface. The snapshots table is append-only: this type deliberately
// exposes no update or delete operation.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Append inserts one snapshot. The (org_id, collected_at) unique constraint
// keeps collection timestamps strictly increasing per organization.
func (r *SnapshotRepo) Append(ctx context.Context, snap model.Snapshot) error {
	const query = `INSERT INTO snapshots (org_id, collected_at, raw_payload, metrics) VALUES (?, ?, ?, ?)`

	metricsJSON, err := json.Marshal(snap.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics for organization %s: %w", snap.OrgID, err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		snap.OrgID, formatTime(snap.CollectedAt), string(snap.RawPayload), string(metricsJSON))
	if err != nil {
		return fmt.Errorf("append snapshot for organization %s: %w", snap.OrgID, err)
	}

	return nil
}

// Query returns the snapshots for an organization with
// from <= collected_at < to, ascending. A stored row whose metrics column
// fails to decode is logged and skipped so one corrupt record cannot poison
// the whole range.
func (r *SnapshotRepo) Query(ctx context.Context, orgID string, from, to time.Time) ([]model.Snapshot, error) {
	const query = `
		SELECT id, org_id, collected_at, raw_payload, metrics
		FROM snapshots
		WHERE org_id = ? AND collected_at >= ? AND collected_at < ?
		ORDER BY collected_at`

	rows, err := r.db.Reader.QueryContext(ctx, query, orgID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("query snapshots for organization %s: %w", orgID, err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var collectedAt, rawPayload, metricsJSON string

		if err := rows.Scan(&snap.ID, &snap.OrgID, &collectedAt, &rawPayload, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		snap.CollectedAt, err = parseTime(collectedAt)
		if err != nil {
			slog.Error("skipping snapshot with malformed collected_at", "org_id", orgID, "snapshot_id", snap.ID, "error", err)
			continue
		}

		if err := json.Unmarshal([]byte(metricsJSON), &snap.Metrics); err != nil {
			slog.Error("skipping snapshot with malformed metrics", "org_id", orgID, "snapshot_id", snap.ID, "error", err)
			continue
		}

		snap.RawPayload = []byte(rawPayload)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snaps, nil
}

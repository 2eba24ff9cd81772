package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// SchedulerStatus is the externally visible scheduler state.
type SchedulerStatus struct {
	Running bool
}

// Sweeper drives periodic collection sweeps over all active organizations.
// The timer-driven path and TriggerNow funnel through the same overlap guard,
// so at most one sweep is ever in flight.
type Sweeper struct {
	orgs         *OrganizationService
	fetcher      *LimitsFetcher
	snapshots    driven.SnapshotStore
	interval     time.Duration
	fetchTimeout time.Duration
	workers      int

	running  atomic.Bool // Between Start and Stop.
	sweeping atomic.Bool // Overlap guard shared by timer and trigger paths.
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a new Sweeper. workers bounds per-sweep concurrency;
// fetchTimeout bounds each organization's collection so one unreachable
// tenant cannot stall the sweep.
func NewSweeper(orgs *OrganizationService, fetcher *LimitsFetcher, snapshots driven.SnapshotStore, interval, fetchTimeout time.Duration, workers int) *Sweeper {
	return &Sweeper{
		orgs:         orgs,
		fetcher:      fetcher,
		snapshots:    snapshots,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		workers:      workers,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the sweep loop: an immediate sweep, then one per interval.
// Start blocks until the context is canceled or Stop is called; an in-flight
// sweep is not interrupted by Stop.
func (s *Sweeper) Start(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	if err := s.trySweep(ctx); err != nil {
		slog.Warn("initial sweep skipped", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped", "reason", "context canceled")
			return
		case <-s.stopCh:
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			if err := s.trySweep(ctx); err != nil {
				slog.Warn("scheduled sweep skipped", "error", err)
			}
		}
	}
}

// Stop halts future sweeps. It does not cancel an in-flight one; callers
// needing hard cancellation cancel the context passed to Start.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// TriggerNow runs one sweep immediately, sharing the overlap guard with the
// timer path. Returns ErrSweepInProgress when a sweep is already running.
func (s *Sweeper) TriggerNow(ctx context.Context) error {
	return s.trySweep(ctx)
}

// Status reports whether the sweep loop is running.
func (s *Sweeper) Status() SchedulerStatus {
	return SchedulerStatus{Running: s.running.Load()}
}

func (s *Sweeper) trySweep(ctx context.Context) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		return ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	s.sweep(ctx)
	return nil
}

// sweep enumerates all active organizations and collects each one on a
// bounded worker pool. Per-organization failures are logged and counted but
// never abort the remaining tenants.
func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	orgs, err := s.orgs.ListActive(ctx)
	if err != nil {
		slog.Error("sweep aborted, cannot list organizations", "error", err)
		return
	}

	var collected, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, org := range orgs {
		org := org // per-iteration copy for pre-1.22 loop semantics
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			if err := s.collectOne(ctx, org); err != nil {
				failed.Add(1)
				if errors.Is(err, ErrReconnectRequired) {
					slog.Error("organization needs reconnection", "org_id", org.ID, "external_id", org.ExternalID, "error", err)
				} else {
					slog.Error("organization sweep failed", "org_id", org.ID, "error", err)
				}
				return nil
			}

			collected.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("sweep complete",
		"orgs", len(orgs),
		"collected", collected.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// collectOne is the per-organization unit of work: decrypt credentials,
// fetch, append a snapshot, mark synced. Bounded by fetchTimeout.
func (s *Sweeper) collectOne(ctx context.Context, org model.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	secrets, err := s.orgs.DecryptSecrets(&org)
	if err != nil {
		return err
	}

	result, err := s.fetcher.Collect(ctx, &org, secrets)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	snap := model.Snapshot{
		OrgID:       org.ID,
		CollectedAt: now,
		RawPayload:  result.Raw,
		Metrics:     model.ExtractMetrics(result.Limits),
	}

	if err := s.snapshots.Append(ctx, snap); err != nil {
		return err
	}

	if err := s.orgs.MarkSynced(ctx, org.ID, now); err != nil {
		// The snapshot is stored; a stale last_sync_at is not worth
		// failing the tenant over.
		slog.Error("mark synced failed", "org_id", org.ID, "error", err)
	}

	slog.Debug("organization collected", "org_id", org.ID, "metrics", len(snap.Metrics))
	return nil
}

package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// stableBandPercent is the absolute growth rate below which a metric is
// classified as stable.
const stableBandPercent = 5.0

// UsageService answers owner-scoped history and trend queries over the
// snapshot log. It is the read-side counterpart of the sweep path and is
// consumed by the API layer outside this service.
type UsageService struct {
	orgs      *OrganizationService
	snapshots driven.SnapshotStore
}

// NewUsageService creates a new UsageService.
func NewUsageService(orgs *OrganizationService, snapshots driven.SnapshotStore) *UsageService {
	return &UsageService{orgs: orgs, snapshots: snapshots}
}

// ListHistory returns the organization's usage over the last days, aggregated
// at the requested granularity. Owner-scoped: a caller can never read another
// owner's history.
func (s *UsageService) ListHistory(ctx context.Context, orgID, ownerID string, days int, granularity model.Granularity) ([]model.AggregatedPoint, error) {
	switch granularity {
	case model.GranularityHour, model.GranularityDay, model.GranularityWeek:
	default:
		return nil, fmt.Errorf("unknown granularity %q", granularity)
	}

	if _, err := s.orgs.Get(ctx, orgID, ownerID); err != nil {
		return nil, err
	}

	snaps, err := s.querySince(ctx, orgID, days)
	if err != nil {
		return nil, err
	}

	return GroupSnapshots(snaps, granularity), nil
}

// GetTrends classifies each tracked metric's movement over the last days.
// Day-granularity points are preferred; with fewer than 2 of them the
// analysis falls back to hour granularity over at most 7 days. With still
// fewer than 2 points every metric reports insufficient_data rather than
// guessing a trend from a single sample.
func (s *UsageService) GetTrends(ctx context.Context, orgID, ownerID string, days int) (model.TrendReport, error) {
	if _, err := s.orgs.Get(ctx, orgID, ownerID); err != nil {
		return nil, err
	}

	snaps, err := s.querySince(ctx, orgID, days)
	if err != nil {
		return nil, err
	}

	points := GroupSnapshots(snaps, model.GranularityDay)
	if len(points) < 2 {
		fallbackDays := min(days, 7)
		snaps, err = s.querySince(ctx, orgID, fallbackDays)
		if err != nil {
			return nil, err
		}
		points = GroupSnapshots(snaps, model.GranularityHour)
	}

	if len(points) < 2 {
		return insufficientData(), nil
	}

	return analyzeTrends(points[0], points[len(points)-1]), nil
}

func (s *UsageService) querySince(ctx context.Context, orgID string, days int) ([]model.Snapshot, error) {
	if days < 1 {
		days = 1
	}
	now := time.Now().UTC()
	return s.snapshots.Query(ctx, orgID, now.AddDate(0, 0, -days), now)
}

// analyzeTrends compares the first and last point of a series per tracked
// metric, over the mean Used value.
func analyzeTrends(first, last model.AggregatedPoint) model.TrendReport {
	report := make(model.TrendReport, len(model.TrackedMetrics))

	for _, name := range model.TrackedMetrics {
		f, fok := first.Metrics[name]
		l, lok := last.Metrics[name]
		if !fok || !lok {
			report[name] = model.MetricTrend{Direction: model.TrendInsufficientData}
			continue
		}

		rate := growthRate(f.Used, l.Used)
		report[name] = model.MetricTrend{
			Direction:         classifyGrowth(rate),
			GrowthRatePercent: rate,
		}
	}

	return report
}

// growthRate is the percentage change from first to last. A zero baseline
// cannot be divided: nothing-to-nothing is 0, nothing-to-something is
// reported as 100.
func growthRate(first, last float64) float64 {
	if first == 0 {
		if last == 0 {
			return 0
		}
		return 100
	}
	return (last - first) / first * 100
}

func classifyGrowth(rate float64) model.TrendDirection {
	switch {
	case math.Abs(rate) < stableBandPercent:
		return model.TrendStable
	case rate > 0:
		return model.TrendIncreasing
	default:
		return model.TrendDecreasing
	}
}

func insufficientData() model.TrendReport {
	report := make(model.TrendReport, len(model.TrackedMetrics))
	for _, name := range model.TrackedMetrics {
		report[name] = model.MetricTrend{Direction: model.TrendInsufficientData}
	}
	return report
}

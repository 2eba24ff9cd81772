package model

import "time"

// Granularity selects the bucket size used when aggregating snapshots.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// AggregatedPoint is one synthetic record for a granularity bucket. Each
// metric field is the arithmetic mean across the snapshots that fell in the
// bucket; metrics absent from some snapshots are averaged over the snapshots
// that do carry them.
type AggregatedPoint struct {
	BucketStart time.Time // UTC start of the bucket.
	Granularity Granularity
	SampleCount int
	Metrics     map[string]MetricValue
}

// TrendDirection classifies how a metric moved over an analysis window.
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// MetricTrend is the trend verdict for a single tracked metric.
type MetricTrend struct {
	Direction         TrendDirection
	GrowthRatePercent float64
}

// TrendReport maps each tracked metric name to its trend verdict.
type TrendReport map[string]MetricTrend

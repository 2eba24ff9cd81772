package model

import "time"

// TrackedMetrics are the headline limits extracted from every raw payload.
// The raw payload itself is persisted verbatim, so adding a metric here later
// does not lose history.
var TrackedMetrics = []string{
	"DailyApiRequests",
	"DataStorageMB",
	"FileStorageMB",
}

// MetricValue is one extracted headline metric. Pct is nil when Max is not
// positive: a percentage of an unlimited or unreported quota is undefined,
// not zero.
type MetricValue struct {
	Used float64
	Max  float64
	Pct  *float64
}

// LimitEntry is one entry of the raw limits payload as returned by the
// Salesforce limits API: a maximum and the amount remaining.
type LimitEntry struct {
	Max       float64 `json:"Max"`
	Remaining float64 `json:"Remaining"`
}

// LimitsResult is the outcome of one successful limits fetch: the verbatim
// response body plus the tolerantly parsed limits map.
type LimitsResult struct {
	Raw    []byte
	Limits map[string]LimitEntry
}

// Snapshot is one immutable point-in-time capture of an organization's usage.
// Snapshots are append-only: they form the audit trail and are never updated
// or deleted.
type Snapshot struct {
	ID          int64
	OrgID       string
	CollectedAt time.Time // UTC, strictly increasing per organization.
	RawPayload  []byte
	Metrics     map[string]MetricValue
}

// ExtractMetrics pulls the tracked headline metrics out of a limits map.
// Missing keys are simply absent from the result; they are never reported as
// zero usage. Used is derived as Max - Remaining, which is how the limits API
// reports consumption.
func ExtractMetrics(limits map[string]LimitEntry) map[string]MetricValue {
	metrics := make(map[string]MetricValue, len(TrackedMetrics))
	for _, name := range TrackedMetrics {
		entry, ok := limits[name]
		if !ok {
			continue
		}

		mv := MetricValue{
			Used: entry.Max - entry.Remaining,
			Max:  entry.Max,
		}
		if entry.Max > 0 {
			pct := mv.Used / entry.Max * 100
			mv.Pct = &pct
		}
		metrics[name] = mv
	}
	return metrics
}

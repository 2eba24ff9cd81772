package application

import (
	"sort"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
)

// GroupSnapshots buckets snapshots by the given granularity and emits one
// AggregatedPoint per non-empty bucket, ascending by bucket start. Hour
// granularity passes snapshots through unchanged, since collection is already
// hour-resolution or finer.
//
// Bucket means are computed per metric over the snapshots that carry that
// metric; a snapshot missing a metric is excluded from that metric's mean,
// never counted as zero. Pct is averaged only over snapshots where it is
// defined.
func GroupSnapshots(snaps []model.Snapshot, granularity model.Granularity) []model.AggregatedPoint {
	if granularity == model.GranularityHour {
		points := make([]model.AggregatedPoint, 0, len(snaps))
		for _, snap := range snaps {
			points = append(points, model.AggregatedPoint{
				BucketStart: snap.CollectedAt,
				Granularity: granularity,
				SampleCount: 1,
				Metrics:     snap.Metrics,
			})
		}
		return points
	}

	type metricAccum struct {
		usedSum  float64
		maxSum   float64
		count    int
		pctSum   float64
		pctCount int
	}

	buckets := make(map[time.Time]map[string]*metricAccum)
	counts := make(map[time.Time]int)

	for _, snap := range snaps {
		key := bucketStart(snap.CollectedAt, granularity)
		counts[key]++

		accums, ok := buckets[key]
		if !ok {
			accums = make(map[string]*metricAccum)
			buckets[key] = accums
		}

		for name, mv := range snap.Metrics {
			acc, ok := accums[name]
			if !ok {
				acc = &metricAccum{}
				accums[name] = acc
			}
			acc.usedSum += mv.Used
			acc.maxSum += mv.Max
			acc.count++
			if mv.Pct != nil {
				acc.pctSum += *mv.Pct
				acc.pctCount++
			}
		}
	}

	keys := make([]time.Time, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]model.AggregatedPoint, 0, len(keys))
	for _, key := range keys {
		metrics := make(map[string]model.MetricValue, len(buckets[key]))
		for name, acc := range buckets[key] {
			mv := model.MetricValue{
				Used: acc.usedSum / float64(acc.count),
				Max:  acc.maxSum / float64(acc.count),
			}
			if acc.pctCount > 0 {
				pct := acc.pctSum / float64(acc.pctCount)
				mv.Pct = &pct
			}
			metrics[name] = mv
		}

		points = append(points, model.AggregatedPoint{
			BucketStart: key,
			Granularity: granularity,
			SampleCount: counts[key],
			Metrics:     metrics,
		})
	}

	return points
}

// bucketStart returns the UTC start of the bucket containing t: midnight of
// the calendar day, or midnight of the most recent Sunday at/before t for
// week granularity.
func bucketStart(t time.Time, granularity model.Granularity) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	if granularity == model.GranularityWeek {
		return day.AddDate(0, 0, -int(day.Weekday()))
	}
	return day
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetrics(t *testing.T) {
	limits := map[string]LimitEntry{
		"DailyApiRequests": {Max: 15000, Remaining: 14200},
		"DataStorageMB":    {Max: 1024, Remaining: 512},
		"SomethingElse":    {Max: 10, Remaining: 0},
	}

	metrics := ExtractMetrics(limits)

	api, ok := metrics["DailyApiRequests"]
	require.True(t, ok)
	assert.Equal(t, float64(800), api.Used)
	assert.Equal(t, float64(15000), api.Max)
	require.NotNil(t, api.Pct)
	assert.InDelta(t, 800.0/15000*100, *api.Pct, 1e-9)

	data, ok := metrics["DataStorageMB"]
	require.True(t, ok)
	assert.Equal(t, float64(512), data.Used)

	// Untracked keys never make it into the extract.
	_, ok = metrics["SomethingElse"]
	assert.False(t, ok)
}

func TestExtractMetricsMissingKeysAbsent(t *testing.T) {
	metrics := ExtractMetrics(map[string]LimitEntry{
		"FileStorageMB": {Max: 2048, Remaining: 2048},
	})

	require.Len(t, metrics, 1)
	_, ok := metrics["DailyApiRequests"]
	assert.False(t, ok, "missing metric must be absent, not zero")
	assert.Equal(t, float64(0), metrics["FileStorageMB"].Used)
}

func TestExtractMetricsPctUndefinedForNonPositiveMax(t *testing.T) {
	metrics := ExtractMetrics(map[string]LimitEntry{
		"DailyApiRequests": {Max: 0, Remaining: -37},
	})

	mv, ok := metrics["DailyApiRequests"]
	require.True(t, ok)
	assert.Equal(t, float64(37), mv.Used)
	assert.Nil(t, mv.Pct)
}

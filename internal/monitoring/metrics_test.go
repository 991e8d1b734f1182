package monitoring_test

import (
	"errors"
	"testing"

	"github.com/paveg/tabstat/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsCollector(t *testing.T) {
	t.Run("disabled collector only runs the operation", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(false)

		callCount := 0
		err := collector.RecordOperation("scan", func(*monitoring.OperationMetrics) error {
			callCount++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, callCount)
		assert.Empty(t, collector.GetMetrics())
	})

	t.Run("nil collector", func(t *testing.T) {
		var collector *monitoring.MetricsCollector
		assert.False(t, collector.IsEnabled())
		assert.NoError(t, collector.RecordOperation("scan", func(*monitoring.OperationMetrics) error { return nil }))
	})

	t.Run("enabled collector records operation fields", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)

		err := collector.RecordOperation("scan", func(m *monitoring.OperationMetrics) error {
			m.RowsProcessed = 1000
			m.Chunks = 4
			m.Parallel = true
			return nil
		})
		require.NoError(t, err)

		metrics := collector.GetMetrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "scan", metrics[0].Operation)
		assert.Equal(t, uint64(1000), metrics[0].RowsProcessed)
		assert.Equal(t, 4, metrics[0].Chunks)
		assert.True(t, metrics[0].Parallel)
		assert.Positive(t, metrics[0].Duration)
	})

	t.Run("errors are returned and still recorded", func(t *testing.T) {
		collector := monitoring.NewMetricsCollector(true)
		boom := errors.New("boom")

		err := collector.RecordOperation("index", func(*monitoring.OperationMetrics) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Len(t, collector.GetMetrics(), 1)
	})
}

func TestMetricsCollector_Summary(t *testing.T) {
	collector := monitoring.NewMetricsCollector(true)
	assert.Equal(t, monitoring.MetricsSummary{}, collector.GetSummary())

	for _, rows := range []uint64{10, 20, 30} {
		require.NoError(t, collector.RecordOperation("scan", func(m *monitoring.OperationMetrics) error {
			m.RowsProcessed = rows
			m.Chunks = 2
			return nil
		}))
	}
	require.NoError(t, collector.RecordOperation("index", func(*monitoring.OperationMetrics) error { return nil }))

	summary := collector.GetSummary()
	assert.Equal(t, 4, summary.TotalOperations)
	assert.Equal(t, uint64(60), summary.TotalRows)
	assert.Equal(t, 6, summary.TotalChunks)
	assert.Equal(t, map[string]int{"scan": 3, "index": 1}, summary.OperationCounts)

	collector.Clear()
	assert.Empty(t, collector.GetMetrics())
}

func TestMetricsCollector_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	collector := monitoring.NewMetricsCollector(true)

	require.NoError(t, collector.RecordOperation("scan", func(m *monitoring.OperationMetrics) error {
		m.RowsProcessed = 7
		return nil
	}))
	collector.Log(zap.New(core))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "operation metrics", entries[0].Message)
	assert.Equal(t, "scan", entries[0].ContextMap()["operation"])
	assert.Equal(t, uint64(7), entries[0].ContextMap()["rows"])
}

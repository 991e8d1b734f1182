// Package monitoring collects per-scan performance metrics.
package monitoring

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OperationMetrics represents performance metrics for a single operation.
type OperationMetrics struct {
	Operation     string        `json:"operation"`
	Duration      time.Duration `json:"duration"`
	RowsProcessed uint64        `json:"rows_processed"`
	Chunks        int           `json:"chunks"`
	MemoryUsed    int64         `json:"memory_used"`
	Parallel      bool          `json:"parallel"`
}

// MetricsCollector collects and stores performance metrics.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	if mc == nil {
		return false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn and records its metrics. fn fills in the
// fields only it knows (rows, chunks, parallel); the collector measures
// duration and memory. A nil collector only runs fn.
func (mc *MetricsCollector) RecordOperation(operation string, fn func(m *OperationMetrics) error) error {
	m := OperationMetrics{Operation: operation}
	if !mc.IsEnabled() {
		return fn(&m)
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	err := fn(&m)

	m.Duration = time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	// TotalAlloc is monotonic, Alloc may shrink after a collection
	m.MemoryUsed = int64(memAfter.TotalAlloc - memBefore.TotalAlloc) //nolint:gosec // allocation deltas fit in int64

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var summary MetricsSummary
	summary.OperationCounts = make(map[string]int)
	for _, metric := range mc.metrics {
		summary.TotalDuration += metric.Duration
		summary.TotalMemory += metric.MemoryUsed
		summary.TotalRows += metric.RowsProcessed
		summary.TotalChunks += metric.Chunks
		summary.OperationCounts[metric.Operation]++
	}
	summary.TotalOperations = len(mc.metrics)
	summary.AverageDuration = summary.TotalDuration / time.Duration(len(mc.metrics))

	return summary
}

// Log writes every recorded operation to log at info level.
func (mc *MetricsCollector) Log(log *zap.Logger) {
	for _, m := range mc.GetMetrics() {
		log.Info("operation metrics",
			zap.String("operation", m.Operation),
			zap.Duration("duration", m.Duration),
			zap.Uint64("rows", m.RowsProcessed),
			zap.Int("chunks", m.Chunks),
			zap.Int64("allocated_bytes", m.MemoryUsed),
			zap.Bool("parallel", m.Parallel),
		)
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	TotalRows       uint64         `json:"total_rows"`
	TotalChunks     int            `json:"total_chunks"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}

// Package monitoring tracks runtime service metrics and pushes risk
// alerts to connected dashboards.
package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// MetricsCollector 服务指标收集器
type MetricsCollector struct {
	mu sync.RWMutex

	startTime time.Time

	requestCount int64
	errorCount   int64
	latencySumMS int64

	predictionCount int64
	highRiskCount   int64
	trainingRuns    int64
	uploadsTotal    int64
	rowsIngested    int64
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// RecordRequest 记录一次HTTP请求
func (mc *MetricsCollector) RecordRequest(duration time.Duration, isError bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.requestCount++
	mc.latencySumMS += duration.Milliseconds()
	if isError {
		mc.errorCount++
	}
}

// RecordPredictions 记录预测量与高风险数量
func (mc *MetricsCollector) RecordPredictions(total, highRisk int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.predictionCount += int64(total)
	mc.highRiskCount += int64(highRisk)
}

// RecordTraining 记录一次训练
func (mc *MetricsCollector) RecordTraining() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.trainingRuns++
}

// RecordUpload 记录一次数据上传
func (mc *MetricsCollector) RecordUpload(rows int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.uploadsTotal++
	mc.rowsIngested += int64(rows)
}

// Snapshot 当前指标快照
func (mc *MetricsCollector) Snapshot() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	avgLatency := float64(0)
	if mc.requestCount > 0 {
		avgLatency = float64(mc.latencySumMS) / float64(mc.requestCount)
	}

	return map[string]interface{}{
		"uptime_seconds":   int64(time.Since(mc.startTime).Seconds()),
		"request_count":    mc.requestCount,
		"error_count":      mc.errorCount,
		"avg_latency_ms":   avgLatency,
		"prediction_count": mc.predictionCount,
		"high_risk_count":  mc.highRiskCount,
		"training_runs":    mc.trainingRuns,
		"uploads_total":    mc.uploadsTotal,
		"rows_ingested":    mc.rowsIngested,
		"goroutines":       runtime.NumGoroutine(),
		"heap_alloc_bytes": memStats.HeapAlloc,
		"timestamp":        time.Now().Unix(),
	}
}

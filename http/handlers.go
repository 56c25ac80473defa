package http

import (
	"context"
	"net/http"
	"time"

	"eduguard/ml"
)

// handleHealth 健康检查
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if modelManager == nil || dataStore == nil {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
	})
}

// handleMetrics 服务运行指标
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if metrics == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	respondJSON(w, http.StatusOK, metrics.Snapshot())
}

// handleModelStatus 当前模型状态与数据量
func handleModelStatus(w http.ResponseWriter, r *http.Request) {
	status := modelManager.Status()

	count := 0
	var version int64
	if dataStore != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if c, err := dataStore.Count(ctx); err == nil {
			count = c
		}
		version = dataStore.CurrentVersion()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"model":           status,
		"dataset_rows":    count,
		"dataset_version": version,
		"risk_thresholds": modelManager.Thresholds(),
	})
}

// handleModelMetrics 最近一次训练的评估指标
func handleModelMetrics(w http.ResponseWriter, r *http.Request) {
	status := modelManager.Status()
	if !status.Trained {
		respondError(w, ml.ErrModelNotTrained)
		return
	}
	respondJSON(w, http.StatusOK, status.Metrics)
}

// handleDataQuality 数据清洗统计
func handleDataQuality(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  dataCleaner.GetStats(),
		"issues": dataCleaner.GetIssues(50),
	})
}

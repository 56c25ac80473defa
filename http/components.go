// Package http exposes the dropout early warning service as a REST API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"eduguard/export"
	"eduguard/ml"
	"eduguard/monitoring"
	"eduguard/pipeline"
)

// 全局组件，启动时注入
var (
	modelManager *ml.ModelManager
	dataCleaner  *pipeline.DataCleaner
	dataStore    *pipeline.DatasetStore
	metrics      *monitoring.MetricsCollector
	alertHub     *monitoring.AlertHub
	logger       = zap.NewNop()
	trainConfig  = ml.DefaultTrainConfig()
)

// SetModelManager 注入模型管理器
func SetModelManager(mm *ml.ModelManager) {
	modelManager = mm
}

// SetDataPipeline 注入数据清洗器与存储
func SetDataPipeline(cleaner *pipeline.DataCleaner, store *pipeline.DatasetStore) {
	dataCleaner = cleaner
	dataStore = store
}

// SetMonitoring 注入指标收集器与告警中心
func SetMonitoring(collector *monitoring.MetricsCollector, hub *monitoring.AlertHub) {
	metrics = collector
	alertHub = hub
}

// SetLogger 注入结构化日志
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// SetTrainConfig 注入训练配置
func SetTrainConfig(config ml.TrainConfig) {
	trainConfig = config
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Warn("encode response failed", zap.Error(err))
		}
	}
}

// respondError maps domain errors onto HTTP statuses. Client-side
// problems (bad uploads, untrained model, unusable datasets) are 400.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var vErr *pipeline.ValidationError
	var tErr *ml.TrainingError
	switch {
	case errors.As(err, &vErr), errors.As(err, &tErr),
		errors.Is(err, ml.ErrModelNotTrained),
		errors.Is(err, export.ErrNoData):
		status = http.StatusBadRequest
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}

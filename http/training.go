package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"eduguard/db"
	"eduguard/ml"
	"eduguard/monitoring"
)

// trainRequest 可选的训练参数覆盖
type trainRequest struct {
	UseTuning     *bool `json:"use_hyperparameter_tuning"`
	UseOversample *bool `json:"use_oversampling"`
}

// handleTrain 在当前数据集上训练模型
func handleTrain(w http.ResponseWriter, r *http.Request) {
	config := trainConfig
	if r.ContentLength > 0 {
		var req trainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.UseTuning != nil {
			config.UseTuning = *req.UseTuning
		}
		if req.UseOversample != nil {
			config.UseOversample = *req.UseOversample
		}
	}

	result, err := trainWithConfig(r.Context(), config)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// trainOnStoredData 用默认配置训练
func trainOnStoredData(ctx context.Context) (*ml.TrainResult, error) {
	return trainWithConfig(ctx, trainConfig)
}

func trainWithConfig(ctx context.Context, config ml.TrainConfig) (*ml.TrainResult, error) {
	records, err := dataStore.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, &ml.TrainingError{Reason: "no dataset uploaded"}
	}

	result, err := ml.TrainModel(records, config)
	if err != nil {
		return nil, err
	}

	if err := modelManager.SetModel(result); err != nil {
		return nil, err
	}

	if db.DB != nil {
		if err := db.SaveTrainingLog(result); err != nil {
			logger.Warn("save training log failed", zap.Error(err))
		}
	}
	if metrics != nil {
		metrics.RecordTraining()
	}
	if alertHub != nil {
		alertHub.Broadcast(monitoring.AlertTrainingCompleted, map[string]interface{}{
			"data_points": result.DataPoints,
			"metrics":     result.Metrics,
		})
	}

	logger.Info("model trained",
		zap.Int("data_points", result.DataPoints),
		zap.Float64("f1", result.Metrics.F1),
		zap.Float64("roc_auc", result.Metrics.ROCAUC),
	)

	return result, nil
}

// handleTrainingHistory 历史训练记录
func handleTrainingHistory(w http.ResponseWriter, r *http.Request) {
	if db.DB == nil {
		respondJSON(w, http.StatusOK, []db.TrainingLog{})
		return
	}
	logs, err := db.LoadTrainingLog(20)
	if err != nil {
		respondError(w, err)
		return
	}
	if logs == nil {
		logs = []db.TrainingLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

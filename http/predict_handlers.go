package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"eduguard/db"
	"eduguard/export"
	"eduguard/intervention"
	"eduguard/ml"
	"eduguard/monitoring"
	"eduguard/pipeline"
	"eduguard/student"
)

// handlePredict 对单个学生评分
func handlePredict(w http.ResponseWriter, r *http.Request) {
	var record student.Record
	record.Dropout = -1
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	model, err := modelManager.Model()
	if err != nil {
		respondError(w, err)
		return
	}

	record = pipeline.NormalizeForScoring([]student.Record{record})[0]
	features := ml.ExtractFeatures(&record, model.Stats).FeatureVector()
	probability, tier, err := modelManager.Predict(features)
	if err != nil {
		respondError(w, err)
		return
	}

	impacts, err := modelManager.ExplainLocal("", features, 3)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"prediction": ml.Prediction{
			StudentID:   record.StudentID,
			StudentName: record.StudentName,
			Probability: probability,
			Tier:        tier,
		},
		"top_factors":     impacts,
		"recommendations": intervention.Recommend(&record),
	})
}

// batchRequest 可选的学生列表；为空时对当前数据集评分
type batchRequest struct {
	Students []student.Record `json:"students"`
}

// handlePredictBatch 批量评分。带请求体时对传入学生列表评分，
// 否则对已存储的数据集整体评分。
func handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var rows []export.Row
	var err error

	if r.ContentLength > 0 {
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		rows, err = scoreRecords(pipeline.NormalizeForScoring(req.Students))
	} else {
		rows, err = scoreStoredDataset(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}

	predictions := make([]ml.Prediction, len(rows))
	tierCounts := map[ml.RiskTier]int{ml.RiskHigh: 0, ml.RiskMedium: 0, ml.RiskLow: 0}
	for i, row := range rows {
		predictions[i] = row.Prediction
		tierCounts[row.Prediction.Tier]++
	}

	if db.DB != nil {
		if err := db.SavePredictions(predictions); err != nil {
			logger.Warn("save predictions failed", zap.Error(err))
		}
	}
	if metrics != nil {
		metrics.RecordPredictions(len(predictions), tierCounts[ml.RiskHigh])
	}
	if alertHub != nil && tierCounts[ml.RiskHigh] > 0 {
		alertHub.Broadcast(monitoring.AlertHighRisk, map[string]interface{}{
			"high_risk_students": tierCounts[ml.RiskHigh],
			"total_students":     len(predictions),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"tier_counts": map[string]int{
			"high":   tierCounts[ml.RiskHigh],
			"medium": tierCounts[ml.RiskMedium],
			"low":    tierCounts[ml.RiskLow],
		},
		"total": len(predictions),
	})
}

// scoreStoredDataset 对存储的数据集逐行评分并附加干预建议
func scoreStoredDataset(ctx context.Context) ([]export.Row, error) {
	records, err := dataStore.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	return scoreRecords(records)
}

// scoreRecords 逐行评分
func scoreRecords(records []student.Record) ([]export.Row, error) {
	model, err := modelManager.Model()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, export.ErrNoData
	}

	rows := make([]export.Row, len(records))
	for i := range records {
		features := ml.ExtractFeatures(&records[i], model.Stats).FeatureVector()
		probability, tier, err := modelManager.Predict(features)
		if err != nil {
			return nil, err
		}

		rows[i] = export.Row{
			Record: records[i],
			Prediction: ml.Prediction{
				StudentID:   records[i].StudentID,
				StudentName: records[i].StudentName,
				Probability: probability,
				Tier:        tier,
			},
			Recommendations: intervention.Recommend(&records[i]),
		}
	}

	return rows, nil
}

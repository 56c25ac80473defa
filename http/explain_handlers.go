package http

import (
	"fmt"
	"net/http"
	"strconv"

	"eduguard/export"
	"eduguard/intervention"
	"eduguard/ml"
	"eduguard/student"
)

// handleExplainGlobal 全局特征重要性排名
func handleExplainGlobal(w http.ResponseWriter, r *http.Request) {
	model, err := modelManager.Model()
	if err != nil {
		respondError(w, err)
		return
	}

	records, err := dataStore.LoadRecords(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if len(records) == 0 {
		respondError(w, export.ErrNoData)
		return
	}

	matrix := ml.BuildFeatureMatrix(records, model.Stats)
	importance, err := modelManager.ExplainGlobal(matrix)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"importance": importance,
		"students":   len(records),
	})
}

// handleExplainLocal 单个学生的特征贡献（按数据集行号）
func handleExplainLocal(w http.ResponseWriter, r *http.Request) {
	index, record, err := recordByIndex(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	model, err := modelManager.Model()
	if err != nil {
		respondError(w, err)
		return
	}

	features := ml.ExtractFeatures(record, model.Stats).FeatureVector()
	probability, tier, err := modelManager.Predict(features)
	if err != nil {
		respondError(w, err)
		return
	}

	cacheKey := fmt.Sprintf("v%d-%d", dataStore.CurrentVersion(), index)
	impacts, err := modelManager.ExplainLocal(cacheKey, features, 3)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":          record.StudentID,
		"dropout_probability": probability,
		"risk_tier":           tier,
		"top_factors":         impacts,
	})
}

// handleInterventions 单个学生的干预建议（按数据集行号）
func handleInterventions(w http.ResponseWriter, r *http.Request) {
	_, record, err := recordByIndex(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"student_id":      record.StudentID,
		"recommendations": intervention.Recommend(record),
	})
}

// recordByIndex 按路径参数定位数据集中的一行
func recordByIndex(r *http.Request) (int, *student.Record, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, nil, fmt.Errorf("invalid student index")
	}

	records, err := dataStore.LoadRecords(r.Context())
	if err != nil {
		return 0, nil, err
	}
	if index >= len(records) {
		return 0, nil, fmt.Errorf("student index %d out of range (%d rows)", index, len(records))
	}
	return index, &records[index], nil
}

package http

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"eduguard/monitoring"
	"eduguard/student"
)

// handleDataUpload 接收CSV上传：解析、校验、清洗、入库。
// 模型尚未训练时自动触发一次训练。
func handleDataUpload(w http.ResponseWriter, r *http.Request) {
	reader, err := uploadReader(r)
	if err != nil {
		respondError(w, err)
		return
	}

	dataset, err := student.ParseCSV(reader)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cleaned, issues, err := dataCleaner.Clean(dataset)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(cleaned) == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "no valid rows after cleaning"})
		return
	}

	version, err := dataStore.ReplaceDataset(r.Context(), cleaned)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := dataStore.SaveQualityIssues(r.Context(), version, issues); err != nil {
		logger.Warn("save quality issues failed", zap.Error(err))
	}

	if metrics != nil {
		metrics.RecordUpload(len(cleaned))
	}
	if alertHub != nil {
		alertHub.Broadcast(monitoring.AlertDataUploaded, map[string]interface{}{
			"rows":    len(cleaned),
			"version": version,
		})
	}

	response := map[string]interface{}{
		"uploaded_rows": len(dataset.Records),
		"accepted_rows": len(cleaned),
		"rejected_rows": len(dataset.Records) - len(cleaned),
		"issues":        issues,
		"version":       version,
		"has_labels":    dataset.HasLabels,
	}

	// 首次上传时自动训练，让预测接口立即可用
	if !modelManager.Status().Trained {
		result, err := trainOnStoredData(r.Context())
		if err != nil {
			logger.Warn("auto-train after upload failed", zap.Error(err))
			response["auto_train_error"] = err.Error()
		} else {
			response["auto_trained"] = true
			response["metrics"] = result.Metrics
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// uploadReader 支持multipart表单（字段file）或原始请求体
func uploadReader(r *http.Request) (io.Reader, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	return r.Body, nil
}

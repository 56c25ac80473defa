package http

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"eduguard/export"
	"eduguard/ml"
	"eduguard/student"
)

// handleExportCSV 导出评分结果CSV
func handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := scoreStoredDataset(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	filename := fmt.Sprintf("dropout_predictions_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := export.WriteCSV(w, rows); err != nil {
		logger.Warn("csv export failed", zap.Error(err))
	}
}

// handleExportReport 导出HTML汇总报告
func handleExportReport(w http.ResponseWriter, r *http.Request) {
	rows, err := scoreStoredDataset(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	model, err := modelManager.Model()
	if err != nil {
		respondError(w, err)
		return
	}

	var importance []ml.GlobalImportance
	matrix := ml.BuildFeatureMatrix(recordsOf(rows), model.Stats)
	if imp, err := modelManager.ExplainGlobal(matrix); err == nil {
		if len(imp) > 5 {
			imp = imp[:5]
		}
		importance = imp
	}

	data, err := export.BuildReportData(rows, modelManager.Status().Metrics, importance)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.WriteReport(w, data); err != nil {
		logger.Warn("report export failed", zap.Error(err))
	}
}

func recordsOf(rows []export.Row) []student.Record {
	records := make([]student.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].Record
	}
	return records
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server HTTP服务
type Server struct {
	httpServer *http.Server
}

// NewServer 创建并配置HTTP服务
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux)

	handler := Chain(mux,
		Recovery,
		RequestLogger,
		SecurityHeaders,
		CORS,
		RequestSizeLimit,
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/metrics", handleMetrics)

	mux.HandleFunc("GET /api/model/status", handleModelStatus)
	mux.HandleFunc("GET /api/model/metrics", handleModelMetrics)
	mux.HandleFunc("POST /api/model/train", handleTrain)
	mux.HandleFunc("GET /api/model/history", handleTrainingHistory)

	mux.HandleFunc("POST /api/data/upload", handleDataUpload)
	mux.HandleFunc("GET /api/data/quality", handleDataQuality)

	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("POST /api/predict/batch", handlePredictBatch)

	mux.HandleFunc("GET /api/explain/global", handleExplainGlobal)
	mux.HandleFunc("GET /api/explain/local/{index}", handleExplainLocal)
	mux.HandleFunc("GET /api/interventions/{index}", handleInterventions)

	mux.HandleFunc("GET /api/export/csv", handleExportCSV)
	mux.HandleFunc("GET /api/export/report", handleExportReport)

	mux.HandleFunc("GET /api/ws/alerts", handleAlertsWS)
}

// Start 启动服务（阻塞）
func (s *Server) Start() error {
	logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleAlertsWS(w http.ResponseWriter, r *http.Request) {
	if alertHub == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "alerts unavailable"})
		return
	}
	alertHub.ServeWS(w, r)
}

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"eduguard/db"
	httpserver "eduguard/http"
	"eduguard/logging"
	"eduguard/ml"
	"eduguard/monitoring"
	"eduguard/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer db.CloseDB()

	store, err := pipeline.NewDatasetStore(pipeline.StorageConfig{
		DBPath:    config.Database.DatasetPath,
		EnableWAL: true,
	})
	if err != nil {
		logger.Fatal("初始化数据集存储失败", zap.Error(err))
	}
	defer store.Close()

	manager, err := ml.NewModelManager(config.ML.ModelDir, config.ML.RiskThresholds)
	if err != nil {
		logger.Fatal("初始化模型管理器失败", zap.Error(err))
	}
	defer manager.Close()

	// 监听模型目录，训练CLI更新模型文件后自动热加载
	if err := manager.WatchModelDir(); err != nil {
		logger.Warn("模型目录监听启动失败", zap.Error(err))
	}

	hub := monitoring.NewAlertHub()
	go hub.Run()
	defer hub.Stop()

	httpserver.SetLogger(logger)
	httpserver.SetModelManager(manager)
	httpserver.SetDataPipeline(pipeline.NewDataCleaner(), store)
	httpserver.SetMonitoring(monitoring.NewMetricsCollector(), hub)
	httpserver.SetTrainConfig(config.ML.Training)

	server := httpserver.NewServer(config.HTTP.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("eduguard started", zap.Int("port", config.HTTP.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("服务启动失败", zap.Error(err))
	case sig := <-quit:
		logger.Info("收到退出信号", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("关闭服务失败", zap.Error(err))
	}
	logger.Info("eduguard stopped")
}

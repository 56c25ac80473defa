package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eduguard/ml"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "eduguard-db-test")
	if err != nil {
		panic(err)
	}
	if err := InitDB(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}

	code := m.Run()

	CloseDB()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestSavePredictions(t *testing.T) {
	predictions := []ml.Prediction{
		{StudentID: "S001", Probability: 0.8, Tier: ml.RiskHigh},
		{StudentID: "S002", Probability: 0.2, Tier: ml.RiskLow},
	}
	if err := SavePredictions(predictions); err != nil {
		t.Fatalf("save predictions: %v", err)
	}

	var count int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM predictions`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count < 2 {
		t.Errorf("expected at least 2 rows, got %d", count)
	}
}

func TestTrainingLogRoundTrip(t *testing.T) {
	result := &ml.TrainResult{
		Metrics:    ml.Metrics{Accuracy: 0.91, F1: 0.87, ROCAUC: 0.95},
		Params:     ml.DefaultGBDTParams(),
		DataPoints: 150,
		DurationMS: 420,
	}
	if err := SaveTrainingLog(result); err != nil {
		t.Fatalf("save training log: %v", err)
	}

	logs, err := LoadTrainingLog(5)
	if err != nil {
		t.Fatalf("load training log: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected at least one log entry")
	}

	latest := logs[0]
	if latest.DataPoints != 150 || latest.Metrics.Accuracy != 0.91 {
		t.Errorf("unexpected entry: %+v", latest)
	}
	if time.Since(latest.CreatedAt) > time.Hour {
		t.Errorf("created_at looks wrong: %v", latest.CreatedAt)
	}
}

// Package db keeps the operational history of the service: prediction
// batches and training runs.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"eduguard/ml"
)

var DB *sql.DB

// InitDB 初始化数据库连接并建表
func InitDB(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	var err error
	DB, err = sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err = createTables(); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	log.Printf("Database initialized: %s", dbPath)
	return nil
}

func createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            student_id TEXT NOT NULL,
            probability REAL NOT NULL,
            risk_tier TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS training_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            data_points INTEGER NOT NULL,
            accuracy REAL,
            precision_score REAL,
            recall REAL,
            f1_score REAL,
            roc_auc REAL,
            params TEXT,
            duration_ms INTEGER,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_student ON predictions(student_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// SavePredictions 批量保存预测结果
func SavePredictions(predictions []ml.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(`INSERT INTO predictions (student_id, probability, risk_tier) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range predictions {
		if _, err := stmt.Exec(p.StudentID, p.Probability, string(p.Tier)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TrainingLog 一次训练的记录
type TrainingLog struct {
	ID         int64      `json:"id"`
	DataPoints int        `json:"data_points"`
	Metrics    ml.Metrics `json:"metrics"`
	Params     string     `json:"params"`
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SaveTrainingLog 保存训练记录
func SaveTrainingLog(result *ml.TrainResult) error {
	params, err := json.Marshal(result.Params)
	if err != nil {
		return err
	}

	_, err = DB.Exec(`INSERT INTO training_log
        (data_points, accuracy, precision_score, recall, f1_score, roc_auc, params, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.DataPoints,
		result.Metrics.Accuracy,
		result.Metrics.Precision,
		result.Metrics.Recall,
		result.Metrics.F1,
		result.Metrics.ROCAUC,
		string(params),
		result.DurationMS,
	)
	return err
}

// LoadTrainingLog 加载最近的训练记录
func LoadTrainingLog(limit int) ([]TrainingLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := DB.Query(`SELECT id, data_points, accuracy, precision_score, recall, f1_score, roc_auc, params, duration_ms, created_at
        FROM training_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []TrainingLog
	for rows.Next() {
		var entry TrainingLog
		err := rows.Scan(&entry.ID, &entry.DataPoints,
			&entry.Metrics.Accuracy, &entry.Metrics.Precision, &entry.Metrics.Recall,
			&entry.Metrics.F1, &entry.Metrics.ROCAUC,
			&entry.Params, &entry.DurationMS, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// CloseDB 关闭数据库连接
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

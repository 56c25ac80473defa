package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eduguard/student"
	_ "github.com/mattn/go-sqlite3"
)

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath    string `json:"db_path"`
	EnableWAL bool   `json:"enable_wal"`
}

// DatasetStore 数据集存储。每次上传整体替换当前数据集，版本号自增。
type DatasetStore struct {
	config StorageConfig
	db     *sql.DB
	dbLock sync.RWMutex

	preparedStmts map[string]*sql.Stmt
	stmtLock      sync.RWMutex

	version int64
	verLock sync.RWMutex
}

// NewDatasetStore 创建数据集存储
func NewDatasetStore(config StorageConfig) (*DatasetStore, error) {
	store := &DatasetStore{
		config:        config,
		preparedStmts: make(map[string]*sql.Stmt),
	}

	if err := store.initDB(); err != nil {
		return nil, err
	}

	return store, nil
}

// initDB 初始化数据库
func (ds *DatasetStore) initDB() error {
	dir := filepath.Dir(ds.config.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dsn := ds.config.DBPath
	if ds.config.EnableWAL {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	} else {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}

	ds.db = db

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := ds.createTables(); err != nil {
		return fmt.Errorf("create tables failed: %w", err)
	}

	if err := ds.createIndexes(); err != nil {
		log.Printf("Warning: create indexes failed: %v", err)
	}

	// 恢复最新版本号
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(dataset_version) FROM students`).Scan(&version); err == nil && version.Valid {
		ds.version = version.Int64
	}

	return nil
}

// createTables 创建表
func (ds *DatasetStore) createTables() error {
	ds.dbLock.Lock()
	defer ds.dbLock.Unlock()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS students (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            dataset_version INTEGER NOT NULL,
            row_index INTEGER NOT NULL,
            student_id TEXT NOT NULL,
            student_name TEXT,
            attendance_pct REAL NOT NULL,
            assignment_timeliness REAL NOT NULL,
            quiz_test_avg_pct REAL NOT NULL,
            fee_payment_status REAL NOT NULL,
            lms_logins_monthly REAL NOT NULL,
            online_hours_weekly REAL NOT NULL,
            age REAL,
            gender REAL,
            socioeconomic_status REAL,
            dropout INTEGER DEFAULT -1,
            created_at INTEGER DEFAULT (strftime('%s', 'now')),
            UNIQUE(dataset_version, row_index)
        )`,
		`CREATE TABLE IF NOT EXISTS data_quality (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            dataset_version INTEGER NOT NULL,
            student_id TEXT,
            issue_type TEXT NOT NULL,
            severity TEXT NOT NULL,
            message TEXT,
            created_at INTEGER DEFAULT (strftime('%s', 'now'))
        )`,
	}

	for _, query := range queries {
		if _, err := ds.db.Exec(query); err != nil {
			return fmt.Errorf("exec query failed: %w", err)
		}
	}

	return nil
}

// createIndexes 创建索引
func (ds *DatasetStore) createIndexes() error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_students_version ON students(dataset_version, row_index)`,
		`CREATE INDEX IF NOT EXISTS idx_quality_version ON data_quality(dataset_version)`,
	}

	for _, query := range queries {
		if _, err := ds.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceDataset 以新版本保存清洗后的数据集，返回新版本号。
// 旧版本数据随后删除，保证单一活动数据集。
func (ds *DatasetStore) ReplaceDataset(ctx context.Context, records []student.Record) (int64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("no records to save")
	}

	// 候选版本号在提交成功前不发布，失败的上传不影响当前数据集
	version := ds.CurrentVersion() + 1

	stmt, err := ds.getPreparedStmt(`INSERT INTO students
        (dataset_version, row_index, student_id, student_name,
         attendance_pct, assignment_timeliness, quiz_test_avg_pct, fee_payment_status,
         lms_logins_monthly, online_hours_weekly, age, gender, socioeconomic_status, dropout)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}

	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, record := range records {
		_, err := tx.Stmt(stmt).ExecContext(ctx,
			version,
			i,
			record.StudentID,
			record.StudentName,
			record.AttendancePct,
			record.AssignmentTimeliness,
			record.QuizTestAvgPct,
			record.FeePayment,
			record.LMSLoginsMonthly,
			record.OnlineHoursWeekly,
			record.Age,
			record.Gender,
			record.SocioeconomicStatus,
			record.Dropout,
		)
		if err != nil {
			return 0, fmt.Errorf("insert failed: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE dataset_version < ?`, version); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	ds.verLock.Lock()
	if version > ds.version {
		ds.version = version
	}
	ds.verLock.Unlock()

	return version, nil
}

// LoadRecords 加载当前版本全部记录（按行序）
func (ds *DatasetStore) LoadRecords(ctx context.Context) ([]student.Record, error) {
	version := ds.CurrentVersion()
	if version == 0 {
		return nil, nil
	}

	rows, err := ds.db.QueryContext(ctx, `
        SELECT student_id, student_name, attendance_pct, assignment_timeliness,
               quiz_test_avg_pct, fee_payment_status, lms_logins_monthly,
               online_hours_weekly, age, gender, socioeconomic_status, dropout
        FROM students
        WHERE dataset_version = ?
        ORDER BY row_index`, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []student.Record
	for rows.Next() {
		var r student.Record
		var name sql.NullString
		var age, gender, ses sql.NullFloat64
		err := rows.Scan(&r.StudentID, &name, &r.AttendancePct, &r.AssignmentTimeliness,
			&r.QuizTestAvgPct, &r.FeePayment, &r.LMSLoginsMonthly,
			&r.OnlineHoursWeekly, &age, &gender, &ses, &r.Dropout)
		if err != nil {
			return nil, err
		}
		if name.Valid {
			r.StudentName = name.String
		}
		if age.Valid {
			r.Age = age.Float64
		}
		if gender.Valid {
			r.Gender = gender.Float64
		}
		if ses.Valid {
			r.SocioeconomicStatus = ses.Float64
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// SaveQualityIssues 保存质量问题
func (ds *DatasetStore) SaveQualityIssues(ctx context.Context, version int64, issues []QualityIssue) error {
	if len(issues) == 0 {
		return nil
	}

	stmt, err := ds.getPreparedStmt(`INSERT INTO data_quality
        (dataset_version, student_id, issue_type, severity, message)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	for _, issue := range issues {
		if _, err := stmt.ExecContext(ctx, version, issue.StudentID, issue.Type, issue.Severity, issue.Message); err != nil {
			return err
		}
	}
	return nil
}

// CurrentVersion 当前数据集版本（0表示尚无数据）
func (ds *DatasetStore) CurrentVersion() int64 {
	ds.verLock.RLock()
	defer ds.verLock.RUnlock()
	return ds.version
}

// Count 当前数据集行数
func (ds *DatasetStore) Count(ctx context.Context) (int, error) {
	var count int
	err := ds.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE dataset_version = ?`, ds.CurrentVersion()).Scan(&count)
	return count, err
}

// getPreparedStmt 获取预编译语句
func (ds *DatasetStore) getPreparedStmt(query string) (*sql.Stmt, error) {
	ds.stmtLock.RLock()
	stmt, ok := ds.preparedStmts[query]
	ds.stmtLock.RUnlock()

	if ok {
		return stmt, nil
	}

	stmt, err := ds.db.Prepare(query)
	if err != nil {
		return nil, err
	}

	ds.stmtLock.Lock()
	ds.preparedStmts[query] = stmt
	ds.stmtLock.Unlock()

	return stmt, nil
}

// Close 关闭存储
func (ds *DatasetStore) Close() error {
	for _, stmt := range ds.preparedStmts {
		if err := stmt.Close(); err != nil {
			log.Printf("Failed to close statement: %v", err)
		}
	}

	if ds.db != nil {
		return ds.db.Close()
	}

	return nil
}

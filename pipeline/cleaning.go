package pipeline

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"eduguard/student"
)

// ValidationError 上传数据缺少必需列
type ValidationError struct {
	MissingColumns []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
}

// CleaningRule 清洗规则
type CleaningRule interface {
	Apply(*student.Record) (*student.Record, error)
	Name() string
}

// QualityIssue 质量问题
type QualityIssue struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"` // low, medium, high
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	StudentID string    `json:"student_id"`
}

// CleaningStats 清洗统计
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Corrected      int64            `json:"corrected"`
	Imputed        map[string]int64 `json:"imputed"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// DataCleaner 数据清洗器
type DataCleaner struct {
	rules      []CleaningRule
	issues     []QualityIssue
	issuesLock sync.RWMutex

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewDataCleaner 创建数据清洗器
func NewDataCleaner() *DataCleaner {
	cleaner := &DataCleaner{
		rules:  make([]CleaningRule, 0),
		issues: make([]QualityIssue, 0),
		stats: CleaningStats{
			Imputed: make(map[string]int64),
			Issues:  make(map[string]int64),
		},
	}

	cleaner.AddRule(NewStudentIDRule())
	cleaner.AddRule(NewRangeClipRule())
	cleaner.AddRule(NewDuplicateDetectionRule())

	return cleaner
}

// AddRule 添加清洗规则
func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
	log.Printf("Added cleaning rule: %s", rule.Name())
}

// Clean 校验并清洗上传数据集。缺少必需列时返回 ValidationError；
// 不修改传入的数据集，返回清洗后的副本。
func (dc *DataCleaner) Clean(dataset *student.Dataset) ([]student.Record, []QualityIssue, error) {
	if err := checkRequiredColumns(dataset.Columns); err != nil {
		return nil, nil, err
	}

	// 每次上传都是完整替换，重置有状态的规则
	for _, rule := range dc.rules {
		if resettable, ok := rule.(interface{ Reset() }); ok {
			resettable.Reset()
		}
	}

	records := make([]student.Record, len(dataset.Records))
	copy(records, dataset.Records)

	rescaleTimeliness(records)
	dc.impute(records)

	dc.statsLock.Lock()
	defer dc.statsLock.Unlock()

	var cleaned []student.Record
	var issues []QualityIssue

	for i := range records {
		dc.stats.TotalProcessed++

		record := records[i]
		original := record
		var recordIssues []QualityIssue

		for _, rule := range dc.rules {
			applied, err := rule.Apply(&record)
			if err != nil {
				issue := QualityIssue{
					Type:      rule.Name(),
					Severity:  "high",
					Message:   err.Error(),
					Timestamp: time.Now(),
					StudentID: record.StudentID,
				}
				recordIssues = append(recordIssues, issue)
				dc.stats.Issues[rule.Name()]++
				continue
			}
			if applied != nil {
				record = *applied
			}
		}

		if len(recordIssues) > 0 {
			dc.stats.Rejected++
			issues = append(issues, recordIssues...)
			dc.issuesLock.Lock()
			dc.issues = append(dc.issues, recordIssues...)
			dc.issuesLock.Unlock()
		} else {
			if !recordsEqual(&original, &record) {
				dc.stats.Corrected++
			}
			dc.stats.Passed++
			cleaned = append(cleaned, record)
		}
	}

	dc.stats.LastClean = time.Now()

	return cleaned, issues, nil
}

// NormalizeForScoring 对未经上传管道的即时预测输入做与清洗一致的
// 归一化：按时性0-1刻度换算为0-100，再做范围裁剪。不修改传入切片。
func NormalizeForScoring(records []student.Record) []student.Record {
	out := make([]student.Record, len(records))
	copy(out, records)

	clipRule := NewRangeClipRule()
	for i := range out {
		if out[i].AssignmentTimeliness <= 1 {
			out[i].AssignmentTimeliness *= 100
		}
		clipRule.Apply(&out[i])
	}
	return out
}

// recordsEqual 检查清洗前后数值字段是否一致
func recordsEqual(a, b *student.Record) bool {
	return a.AttendancePct == b.AttendancePct &&
		a.AssignmentTimeliness == b.AssignmentTimeliness &&
		a.QuizTestAvgPct == b.QuizTestAvgPct &&
		a.FeePayment == b.FeePayment &&
		a.LMSLoginsMonthly == b.LMSLoginsMonthly &&
		a.OnlineHoursWeekly == b.OnlineHoursWeekly &&
		a.Age == b.Age &&
		a.SocioeconomicStatus == b.SocioeconomicStatus
}

func checkRequiredColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	var missing []string
	for _, col := range student.RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingColumns: missing}
	}
	return nil
}

// rescaleTimeliness 按时性若整体为0-1刻度（中位数<=1）则换算为0-100
func rescaleTimeliness(records []student.Record) {
	values := make([]float64, 0, len(records))
	for i := range records {
		if !records[i].Missing[student.ColTimeliness] {
			values = append(values, records[i].AssignmentTimeliness)
		}
	}
	if len(values) == 0 {
		return
	}
	if median(values) <= 1 {
		for i := range records {
			records[i].AssignmentTimeliness *= 100
		}
	}
}

// impute 缺失值填充：数值列取中位数，缴费状态取众数
func (dc *DataCleaner) impute(records []student.Record) {
	type accessor struct {
		get func(*student.Record) float64
		set func(*student.Record, float64)
	}
	numericCols := map[string]accessor{
		student.ColAttendance: {
			func(r *student.Record) float64 { return r.AttendancePct },
			func(r *student.Record, v float64) { r.AttendancePct = v },
		},
		student.ColTimeliness: {
			func(r *student.Record) float64 { return r.AssignmentTimeliness },
			func(r *student.Record, v float64) { r.AssignmentTimeliness = v },
		},
		student.ColQuizAvg: {
			func(r *student.Record) float64 { return r.QuizTestAvgPct },
			func(r *student.Record, v float64) { r.QuizTestAvgPct = v },
		},
		student.ColLMSLogins: {
			func(r *student.Record) float64 { return r.LMSLoginsMonthly },
			func(r *student.Record, v float64) { r.LMSLoginsMonthly = v },
		},
		student.ColOnlineHours: {
			func(r *student.Record) float64 { return r.OnlineHoursWeekly },
			func(r *student.Record, v float64) { r.OnlineHoursWeekly = v },
		},
		student.ColAge: {
			func(r *student.Record) float64 { return r.Age },
			func(r *student.Record, v float64) { r.Age = v },
		},
		student.ColSES: {
			func(r *student.Record) float64 { return r.SocioeconomicStatus },
			func(r *student.Record, v float64) { r.SocioeconomicStatus = v },
		},
	}

	for col, access := range numericCols {
		var present []float64
		for i := range records {
			if !records[i].Missing[col] {
				present = append(present, access.get(&records[i]))
			}
		}
		if len(present) == 0 || len(present) == len(records) {
			continue
		}
		fill := median(present)
		for i := range records {
			if records[i].Missing[col] {
				access.set(&records[i], fill)
				dc.recordImputed(col)
			}
		}
	}

	counts := make(map[float64]int)
	for i := range records {
		if !records[i].Missing[student.ColFeeStatus] {
			counts[records[i].FeePayment]++
		}
	}
	if len(counts) > 0 {
		mode := modeValue(counts)
		for i := range records {
			if records[i].Missing[student.ColFeeStatus] {
				records[i].FeePayment = mode
				dc.recordImputed(student.ColFeeStatus)
			}
		}
	}
}

func (dc *DataCleaner) recordImputed(col string) {
	dc.statsLock.Lock()
	dc.stats.Imputed[col]++
	dc.statsLock.Unlock()
}

// GetStats 获取统计信息
func (dc *DataCleaner) GetStats() CleaningStats {
	dc.statsLock.RLock()
	defer dc.statsLock.RUnlock()

	return dc.stats
}

// GetIssues 获取问题列表
func (dc *DataCleaner) GetIssues(limit int) []QualityIssue {
	dc.issuesLock.RLock()
	defer dc.issuesLock.RUnlock()

	if limit <= 0 || limit > len(dc.issues) {
		limit = len(dc.issues)
	}

	issues := make([]QualityIssue, limit)
	copy(issues, dc.issues[len(dc.issues)-limit:])
	return issues
}

// ============ 清洗规则实现 ============

// StudentIDRule 学号校验规则
type StudentIDRule struct{}

func NewStudentIDRule() *StudentIDRule {
	return &StudentIDRule{}
}

func (r *StudentIDRule) Name() string {
	return "student_id_validation"
}

func (r *StudentIDRule) Apply(record *student.Record) (*student.Record, error) {
	if strings.TrimSpace(record.StudentID) == "" {
		return nil, fmt.Errorf("student id is empty")
	}
	return record, nil
}

// RangeClipRule 数值范围裁剪规则
type RangeClipRule struct{}

func NewRangeClipRule() *RangeClipRule {
	return &RangeClipRule{}
}

func (r *RangeClipRule) Name() string {
	return "range_clip"
}

func (r *RangeClipRule) Apply(record *student.Record) (*student.Record, error) {
	record.AttendancePct = clip(record.AttendancePct, 0, 100)
	record.AssignmentTimeliness = clip(record.AssignmentTimeliness, 0, 100)
	record.QuizTestAvgPct = clip(record.QuizTestAvgPct, 0, 100)
	record.FeePayment = clip(record.FeePayment, 0, 1)

	if record.LMSLoginsMonthly < 0 {
		record.LMSLoginsMonthly = 0
	}
	if record.OnlineHoursWeekly < 0 {
		record.OnlineHoursWeekly = 0
	}
	if record.Age != 0 {
		record.Age = clip(record.Age, 16, 100)
	}
	if record.SocioeconomicStatus != 0 {
		record.SocioeconomicStatus = clip(record.SocioeconomicStatus, 1, 5)
	}

	return record, nil
}

// DuplicateDetectionRule 重复学号检测规则
type DuplicateDetectionRule struct {
	seenMap map[string]struct{}
	mu      sync.Mutex
}

func NewDuplicateDetectionRule() *DuplicateDetectionRule {
	return &DuplicateDetectionRule{
		seenMap: make(map[string]struct{}),
	}
}

func (r *DuplicateDetectionRule) Name() string {
	return "duplicate_detection"
}

// Reset 清空已见学号集合
func (r *DuplicateDetectionRule) Reset() {
	r.mu.Lock()
	r.seenMap = make(map[string]struct{})
	r.mu.Unlock()
}

func (r *DuplicateDetectionRule) Apply(record *student.Record) (*student.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.seenMap[record.StudentID]; exists {
		return nil, fmt.Errorf("duplicate student record: %s", record.StudentID)
	}

	r.seenMap[record.StudentID] = struct{}{}
	return record, nil
}

func clip(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

func modeValue(counts map[float64]int) float64 {
	best := 0.0
	bestCount := -1
	for value, count := range counts {
		if count > bestCount {
			bestCount = count
			best = value
		}
	}
	return best
}

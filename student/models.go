package student

import "time"

// FeePaymentStatus 缴费状态（Paid=1, Partial=0.5, Unpaid=0）
type FeePaymentStatus float64

const (
	FeeUnpaid  FeePaymentStatus = 0
	FeePartial FeePaymentStatus = 0.5
	FeePaid    FeePaymentStatus = 1
)

// Record 单个学生的原始记录
type Record struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`

	AttendancePct        float64 `json:"attendance_percentage"`
	AssignmentTimeliness float64 `json:"assignment_timeliness"`
	QuizTestAvgPct       float64 `json:"quiz_test_avg_pct"`
	FeePayment           float64 `json:"fee_payment_status"`
	LMSLoginsMonthly     float64 `json:"lms_login_count_monthly"`
	OnlineHoursWeekly    float64 `json:"time_spent_online_hours_week"`

	Age                 float64 `json:"age,omitempty"`
	Gender              float64 `json:"gender,omitempty"`
	SocioeconomicStatus float64 `json:"socioeconomic_status,omitempty"`

	// Dropout 为 -1 表示无标签
	Dropout int `json:"dropout"`

	Missing map[string]bool `json:"-"`
}

// Dataset 一次上传形成的训练数据集
type Dataset struct {
	Records    []Record  `json:"records"`
	Columns    []string  `json:"columns"`
	HasLabels  bool      `json:"has_labels"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// 期望的列名（大小写不敏感匹配）
const (
	ColStudentID   = "student_id"
	ColStudentName = "student_name"
	ColAttendance  = "attendance_percentage"
	ColTimeliness  = "assignment_timeliness"
	ColQuizAvg     = "quiz_test_avg_pct"
	ColFeeStatus   = "fee_payment_status"
	ColLMSLogins   = "lms_login_count_monthly"
	ColOnlineHours = "time_spent_online_hours_week"
	ColAge         = "age"
	ColGender      = "gender"
	ColSES         = "socioeconomic_status"
	ColDropout     = "dropout"
)

// RequiredColumns 上传数据必须包含的列
func RequiredColumns() []string {
	return []string{
		ColStudentID,
		ColAttendance,
		ColTimeliness,
		ColQuizAvg,
		ColFeeStatus,
		ColLMSLogins,
		ColOnlineHours,
	}
}

// OptionalColumns 可选列
func OptionalColumns() []string {
	return []string{
		ColStudentName,
		ColAge,
		ColGender,
		ColSES,
		ColDropout,
	}
}

// ParseFeeStatus 解析缴费状态（paid/partial/unpaid 或 1/0.5/0/2）
func ParseFeeStatus(raw string) (float64, bool) {
	switch normalizeToken(raw) {
	case "paid", "1":
		return float64(FeePaid), true
	case "partial", "0.5", "2":
		return float64(FeePartial), true
	case "unpaid", "0":
		return float64(FeeUnpaid), true
	default:
		return 0, false
	}
}

// ParseGender 解析性别（male/female/other 或 m/f/o）
func ParseGender(raw string) (float64, bool) {
	switch normalizeToken(raw) {
	case "male", "m", "1":
		return 1, true
	case "female", "f", "0":
		return 0, true
	case "other", "o", "2":
		return 2, true
	default:
		return 0, false
	}
}

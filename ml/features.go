package ml

import (
	"math"

	"eduguard/student"
)

// Feature names, order matters: FeatureVector emits values in this order.
const (
	FeatAttendance   = "attendance_percentage"
	FeatTimeliness   = "assignment_timeliness"
	FeatQuizAvg      = "quiz_test_avg_pct"
	FeatFeeStatus    = "fee_payment_status"
	FeatLMSLogins    = "lms_login_count_monthly"
	FeatOnlineHours  = "time_spent_online_hours_week"
	FeatEngagement   = "engagement_score"
	FeatAcademic     = "academic_performance"
	FeatLowAttend    = "low_attendance"
	FeatPaymentIssue = "payment_issues"
)

// FeatureNames returns the model feature order.
func FeatureNames() []string {
	return []string{
		FeatAttendance,
		FeatTimeliness,
		FeatQuizAvg,
		FeatFeeStatus,
		FeatLMSLogins,
		FeatOnlineHours,
		FeatEngagement,
		FeatAcademic,
		FeatLowAttend,
		FeatPaymentIssue,
	}
}

// StudentFeatures holds raw and engineered features for one student.
type StudentFeatures struct {
	Attendance   float64 `json:"attendance_percentage"`
	Timeliness   float64 `json:"assignment_timeliness"`
	QuizAvg      float64 `json:"quiz_test_avg_pct"`
	FeeStatus    float64 `json:"fee_payment_status"`
	LMSLogins    float64 `json:"lms_login_count_monthly"`
	OnlineHours  float64 `json:"time_spent_online_hours_week"`
	Engagement   float64 `json:"engagement_score"`
	Academic     float64 `json:"academic_performance"`
	LowAttend    float64 `json:"low_attendance"`
	PaymentIssue float64 `json:"payment_issues"`
}

// FeatureVector returns values aligned with FeatureNames.
func (sf *StudentFeatures) FeatureVector() []float64 {
	return []float64{
		sf.Attendance,
		sf.Timeliness,
		sf.QuizAvg,
		sf.FeeStatus,
		sf.LMSLogins,
		sf.OnlineHours,
		sf.Engagement,
		sf.Academic,
		sf.LowAttend,
		sf.PaymentIssue,
	}
}

// FeatureStats carries the dataset maxima used to scale engagement terms.
// Stored with the model so single predictions reproduce training scaling.
type FeatureStats struct {
	MaxLMSLogins   float64 `json:"max_lms_logins"`
	MaxOnlineHours float64 `json:"max_online_hours"`
}

// ComputeFeatureStats derives scaling stats from a cleaned dataset.
func ComputeFeatureStats(records []student.Record) FeatureStats {
	stats := FeatureStats{MaxLMSLogins: 1, MaxOnlineHours: 1}
	for i := range records {
		stats.MaxLMSLogins = math.Max(stats.MaxLMSLogins, records[i].LMSLoginsMonthly)
		stats.MaxOnlineHours = math.Max(stats.MaxOnlineHours, records[i].OnlineHoursWeekly)
	}
	return stats
}

// ExtractFeatures builds the model features for one student record.
//
// engagement_score blends attendance with scaled LMS activity,
// academic_performance blends quiz average with assignment timeliness.
func ExtractFeatures(record *student.Record, stats FeatureStats) *StudentFeatures {
	features := &StudentFeatures{
		Attendance:  record.AttendancePct,
		Timeliness:  record.AssignmentTimeliness,
		QuizAvg:     record.QuizTestAvgPct,
		FeeStatus:   record.FeePayment,
		LMSLogins:   record.LMSLoginsMonthly,
		OnlineHours: record.OnlineHoursWeekly,
	}

	loginScale := safeRatio(record.LMSLoginsMonthly, stats.MaxLMSLogins)
	hoursScale := safeRatio(record.OnlineHoursWeekly, stats.MaxOnlineHours)

	features.Engagement = 0.4*record.AttendancePct + 0.3*loginScale*100 + 0.3*hoursScale*100
	features.Academic = 0.3*record.AssignmentTimeliness + 0.7*record.QuizTestAvgPct

	if record.AttendancePct < 70 {
		features.LowAttend = 1
	}
	if record.FeePayment < 1 {
		features.PaymentIssue = 1
	}

	return features
}

// BuildFeatureMatrix extracts features for every record.
func BuildFeatureMatrix(records []student.Record, stats FeatureStats) [][]float64 {
	matrix := make([][]float64, len(records))
	for i := range records {
		matrix[i] = ExtractFeatures(&records[i], stats).FeatureVector()
	}
	return matrix
}

func safeRatio(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	ratio := value / max
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

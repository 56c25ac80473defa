package ml

import (
	"math"
	"testing"

	"eduguard/student"
)

func TestExtractFeatures(t *testing.T) {
	stats := FeatureStats{MaxLMSLogins: 20, MaxOnlineHours: 10}
	record := student.Record{
		StudentID:            "S001",
		AttendancePct:        60,
		AssignmentTimeliness: 50,
		QuizTestAvgPct:       70,
		FeePayment:           0.5,
		LMSLoginsMonthly:     10,
		OnlineHoursWeekly:    5,
	}

	features := ExtractFeatures(&record, stats)

	// 0.4*60 + 0.3*(10/20)*100 + 0.3*(5/10)*100 = 24 + 15 + 15
	if math.Abs(features.Engagement-54) > 1e-9 {
		t.Errorf("engagement = %v, want 54", features.Engagement)
	}
	// 0.3*50 + 0.7*70 = 15 + 49
	if math.Abs(features.Academic-64) > 1e-9 {
		t.Errorf("academic = %v, want 64", features.Academic)
	}
	if features.LowAttend != 1 {
		t.Error("attendance below 70 should flag low_attendance")
	}
	if features.PaymentIssue != 1 {
		t.Error("partial payment should flag payment_issues")
	}

	vector := features.FeatureVector()
	if len(vector) != len(FeatureNames()) {
		t.Fatalf("vector length %d != %d names", len(vector), len(FeatureNames()))
	}
}

func TestExtractFeaturesNoFlags(t *testing.T) {
	stats := FeatureStats{MaxLMSLogins: 20, MaxOnlineHours: 10}
	record := student.Record{AttendancePct: 85, FeePayment: 1}

	features := ExtractFeatures(&record, stats)
	if features.LowAttend != 0 || features.PaymentIssue != 0 {
		t.Errorf("unexpected flags: %+v", features)
	}
}

func TestComputeFeatureStats(t *testing.T) {
	records := []student.Record{
		{LMSLoginsMonthly: 5, OnlineHoursWeekly: 2},
		{LMSLoginsMonthly: 30, OnlineHoursWeekly: 12},
	}
	stats := ComputeFeatureStats(records)
	if stats.MaxLMSLogins != 30 || stats.MaxOnlineHours != 12 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// Empty dataset keeps the scale divisors at 1.
	empty := ComputeFeatureStats(nil)
	if empty.MaxLMSLogins != 1 || empty.MaxOnlineHours != 1 {
		t.Errorf("unexpected empty stats: %+v", empty)
	}
}

func TestSafeRatioCapsAtOne(t *testing.T) {
	if safeRatio(15, 10) != 1 {
		t.Error("ratio above max should cap at 1")
	}
	if safeRatio(5, 0) != 0 {
		t.Error("zero max should yield 0")
	}
}

package intervention

import (
	"testing"

	"eduguard/student"
)

func TestRecommendHighRiskStudent(t *testing.T) {
	record := student.Record{
		StudentID:            "S001",
		AttendancePct:        40,
		AssignmentTimeliness: 30,
		QuizTestAvgPct:       45,
		FeePayment:           0,
		LMSLoginsMonthly:     2,
		OnlineHoursWeekly:    1,
		SocioeconomicStatus:  1,
	}

	recs := Recommend(&record)
	if len(recs) != 5 {
		t.Fatalf("expected cap of 5 recommendations, got %d", len(recs))
	}
	for i := 0; i+1 < len(recs); i++ {
		if recs[i].Priority < recs[i+1].Priority {
			t.Fatal("recommendations not sorted by priority")
		}
	}
	if recs[0].Priority != 9 {
		t.Errorf("top recommendation should be priority 9, got %d", recs[0].Priority)
	}
}

func TestRecommendHealthyStudent(t *testing.T) {
	record := student.Record{
		StudentID:            "S002",
		AttendancePct:        90,
		AssignmentTimeliness: 85,
		QuizTestAvgPct:       80,
		FeePayment:           1,
		LMSLoginsMonthly:     18,
		OnlineHoursWeekly:    9,
	}

	if recs := Recommend(&record); len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %v", recs)
	}
}

func TestRecommendSingleFactor(t *testing.T) {
	record := student.Record{
		StudentID:            "S003",
		AttendancePct:        85,
		AssignmentTimeliness: 80,
		QuizTestAvgPct:       55,
		FeePayment:           1,
		LMSLoginsMonthly:     12,
		OnlineHoursWeekly:    6,
	}

	recs := Recommend(&record)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if recs[0].Type != "academic_tutoring" {
		t.Errorf("expected tutoring, got %s", recs[0].Type)
	}
}

func TestRecommendIgnoresMissingSES(t *testing.T) {
	record := student.Record{
		StudentID:            "S004",
		AttendancePct:        85,
		AssignmentTimeliness: 80,
		QuizTestAvgPct:       75,
		FeePayment:           1,
		LMSLoginsMonthly:     12,
		OnlineHoursWeekly:    6,
		SocioeconomicStatus:  0, // not provided
	}

	if recs := Recommend(&record); len(recs) != 0 {
		t.Fatalf("zero SES must not trigger support, got %v", recs)
	}
}

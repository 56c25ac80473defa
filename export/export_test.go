package export

import (
	"bytes"
	"strings"
	"testing"

	"eduguard/intervention"
	"eduguard/ml"
	"eduguard/student"
)

func sampleRows() []Row {
	return []Row{
		{
			Record: student.Record{
				StudentID:     "S001",
				StudentName:   "Alice",
				AttendancePct: 92,
			},
			Prediction: ml.Prediction{StudentID: "S001", Probability: 0.12, Tier: ml.RiskLow},
		},
		{
			Record: student.Record{
				StudentID:      "S002",
				AttendancePct:  41,
				QuizTestAvgPct: 38,
			},
			Prediction: ml.Prediction{StudentID: "S002", Probability: 0.83, Tier: ml.RiskHigh},
			Recommendations: []intervention.Recommendation{
				{Type: "attendance_counseling", Priority: 9, Action: "Schedule attendance counseling session"},
			},
		},
		{
			Record:     student.Record{StudentID: "S003", AttendancePct: 66},
			Prediction: ml.Prediction{StudentID: "S003", Probability: 0.5, Tier: ml.RiskMedium},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header plus one line per student
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "student_id,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "0.8300") || !strings.Contains(lines[2], "High") {
		t.Errorf("high-risk row malformed: %s", lines[2])
	}
	if !strings.Contains(lines[2], "Schedule attendance counseling session") {
		t.Errorf("recommendations missing from row: %s", lines[2])
	}
}

func TestWriteCSVNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != ErrNoData {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestBuildReportData(t *testing.T) {
	data, err := BuildReportData(sampleRows(), ml.Metrics{Accuracy: 0.91}, nil)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	if data.TotalStudents != 3 {
		t.Errorf("total = %d", data.TotalStudents)
	}
	if data.HighCount != 1 || data.MediumCount != 1 || data.LowCount != 1 {
		t.Errorf("unexpected distribution: %d/%d/%d", data.HighCount, data.MediumCount, data.LowCount)
	}
	if len(data.HighRisk) != 1 || data.HighRisk[0].Record.StudentID != "S002" {
		t.Errorf("unexpected high-risk list: %+v", data.HighRisk)
	}

	if _, err := BuildReportData(nil, ml.Metrics{}, nil); err != ErrNoData {
		t.Errorf("expected ErrNoData for empty rows, got %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	data, err := BuildReportData(sampleRows(), ml.Metrics{Accuracy: 0.91, F1: 0.88}, []ml.GlobalImportance{
		{Feature: "attendance_percentage", MeanAbsImpact: 0.8, PositiveShare: 0.4},
	})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, data); err != nil {
		t.Fatalf("render report: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Student Dropout Risk Report",
		"Risk Distribution",
		"S002",
		"attendance_percentage",
		"91.0%",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

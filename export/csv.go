// Package export renders scored predictions as downloadable artifacts.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"eduguard/intervention"
	"eduguard/ml"
	"eduguard/student"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no predictions to export")

// Row pairs one student with their score and suggested actions.
type Row struct {
	Record          student.Record                `json:"record"`
	Prediction      ml.Prediction                 `json:"prediction"`
	Recommendations []intervention.Recommendation `json:"recommendations,omitempty"`
	TopFactors      []ml.FeatureImpact            `json:"top_factors,omitempty"`
}

// WriteCSV streams predictions as CSV: one header plus one line per
// student, ordered as given.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoData
	}

	writer := csv.NewWriter(w)
	header := []string{
		"student_id",
		"student_name",
		"dropout_probability",
		"risk_tier",
		"attendance_percentage",
		"assignment_timeliness",
		"quiz_test_avg_pct",
		"fee_payment_status",
		"lms_login_count_monthly",
		"time_spent_online_hours_week",
		"recommended_actions",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		actions := make([]string, 0, len(row.Recommendations))
		for _, rec := range row.Recommendations {
			actions = append(actions, rec.Action)
		}

		line := []string{
			row.Record.StudentID,
			row.Record.StudentName,
			fmt.Sprintf("%.4f", row.Prediction.Probability),
			string(row.Prediction.Tier),
			fmt.Sprintf("%.1f", row.Record.AttendancePct),
			fmt.Sprintf("%.1f", row.Record.AssignmentTimeliness),
			fmt.Sprintf("%.1f", row.Record.QuizTestAvgPct),
			fmt.Sprintf("%.1f", row.Record.FeePayment),
			fmt.Sprintf("%.1f", row.Record.LMSLoginsMonthly),
			fmt.Sprintf("%.1f", row.Record.OnlineHoursWeekly),
			strings.Join(actions, "; "),
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

package export

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"eduguard/ml"
)

// ReportData is everything the HTML report template consumes.
type ReportData struct {
	GeneratedAt   time.Time
	TotalStudents int
	AvgProb       float64
	HighCount     int
	MediumCount   int
	LowCount      int
	HighPct       float64
	MediumPct     float64
	LowPct        float64
	Metrics       ml.Metrics
	Importance    []ml.GlobalImportance
	HighRisk      []Row
}

// BuildReportData aggregates rows into report statistics. High-risk
// students are listed by descending probability, capped at twenty.
func BuildReportData(rows []Row, metrics ml.Metrics, importance []ml.GlobalImportance) (*ReportData, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	data := &ReportData{
		GeneratedAt:   time.Now(),
		TotalStudents: len(rows),
		Metrics:       metrics,
		Importance:    importance,
	}

	for _, row := range rows {
		data.AvgProb += row.Prediction.Probability
		switch row.Prediction.Tier {
		case ml.RiskHigh:
			data.HighCount++
			data.HighRisk = append(data.HighRisk, row)
		case ml.RiskMedium:
			data.MediumCount++
		default:
			data.LowCount++
		}
	}

	total := float64(len(rows))
	data.AvgProb /= total
	data.HighPct = float64(data.HighCount) / total * 100
	data.MediumPct = float64(data.MediumCount) / total * 100
	data.LowPct = float64(data.LowCount) / total * 100

	sort.Slice(data.HighRisk, func(i, j int) bool {
		return data.HighRisk[i].Prediction.Probability > data.HighRisk[j].Prediction.Probability
	})
	if len(data.HighRisk) > 20 {
		data.HighRisk = data.HighRisk[:20]
	}

	return data, nil
}

// WriteReport renders the summary report as standalone HTML.
func WriteReport(w io.Writer, data *ReportData) error {
	if data == nil {
		return ErrNoData
	}
	return reportTemplate.Execute(w, data)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"prob": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
}).Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Student Dropout Risk Report</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; margin: 40px; color: #222; }
h1 { border-bottom: 2px solid #2c5aa0; padding-bottom: 8px; }
h2 { color: #2c5aa0; margin-top: 32px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #ccc; padding: 8px 10px; text-align: left; }
th { background: #f0f4fa; }
.tier-high { color: #c0392b; font-weight: bold; }
.tier-medium { color: #d68910; }
.tier-low { color: #1e8449; }
.summary { background: #f8f9fb; border-left: 4px solid #2c5aa0; padding: 12px 16px; }
footer { margin-top: 40px; color: #888; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Student Dropout Risk Report</h1>
<p class="summary">
Generated {{.GeneratedAt.Format "2006-01-02 15:04"}} for {{.TotalStudents}} students.
{{.HighCount}} students ({{pct .HighPct}}) are at high risk of dropping out and need immediate attention.
The average dropout probability across the cohort is {{prob .AvgProb}}.
</p>

<h2>Risk Distribution</h2>
<table>
<tr><th>Risk Tier</th><th>Students</th><th>Share</th></tr>
<tr><td class="tier-high">High</td><td>{{.HighCount}}</td><td>{{pct .HighPct}}</td></tr>
<tr><td class="tier-medium">Medium</td><td>{{.MediumCount}}</td><td>{{pct .MediumPct}}</td></tr>
<tr><td class="tier-low">Low</td><td>{{.LowCount}}</td><td>{{pct .LowPct}}</td></tr>
</table>

<h2>Model Performance</h2>
<table>
<tr><th>Accuracy</th><th>Precision</th><th>Recall</th><th>F1</th><th>ROC AUC</th></tr>
<tr>
<td>{{prob .Metrics.Accuracy}}</td>
<td>{{prob .Metrics.Precision}}</td>
<td>{{prob .Metrics.Recall}}</td>
<td>{{prob .Metrics.F1}}</td>
<td>{{prob .Metrics.ROCAUC}}</td>
</tr>
</table>

{{if .Importance}}
<h2>Key Risk Drivers</h2>
<table>
<tr><th>Feature</th><th>Mean Impact</th><th>Pushes Toward Dropout</th></tr>
{{range .Importance}}
<tr><td>{{.Feature}}</td><td>{{printf "%.4f" .MeanAbsImpact}}</td><td>{{prob .PositiveShare}}</td></tr>
{{end}}
</table>
{{end}}

{{if .HighRisk}}
<h2>Highest Risk Students</h2>
<table>
<tr><th>Student</th><th>Probability</th><th>Attendance</th><th>Quiz Avg</th><th>Top Recommendation</th></tr>
{{range .HighRisk}}
<tr>
<td>{{.Record.StudentID}}{{if .Record.StudentName}} ({{.Record.StudentName}}){{end}}</td>
<td class="tier-high">{{prob .Prediction.Probability}}</td>
<td>{{printf "%.1f" .Record.AttendancePct}}%</td>
<td>{{printf "%.1f" .Record.QuizTestAvgPct}}%</td>
<td>{{if .Recommendations}}{{(index .Recommendations 0).Action}}{{end}}</td>
</tr>
{{end}}
</table>
{{end}}

<footer>EduGuard dropout early warning system</footer>
</body>
</html>
`

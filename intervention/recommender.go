// Package intervention maps student risk factors to concrete support
// actions for advisors.
package intervention

import (
	"sort"

	"eduguard/student"
)

// Recommendation is one suggested action.
type Recommendation struct {
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// rule evaluates one risk factor against a record.
type rule struct {
	matches func(*student.Record) bool
	build   func() Recommendation
}

var rules = []rule{
	{
		matches: func(r *student.Record) bool { return r.AttendancePct < 70 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "attendance_counseling",
				Priority:    9,
				Action:      "Schedule attendance counseling session",
				Description: "Attendance below 70% is a strong early dropout signal. Meet with the student to identify barriers to attending class.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.FeePayment < 1 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "financial_aid",
				Priority:    9,
				Action:      "Refer to financial aid office",
				Description: "Outstanding fees often precede withdrawal. Review payment plans, scholarships and emergency aid options.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.QuizTestAvgPct < 60 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "academic_tutoring",
				Priority:    8,
				Action:      "Enroll in peer tutoring program",
				Description: "Quiz and test average below 60% indicates the student is falling behind academically.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.SocioeconomicStatus > 0 && r.SocioeconomicStatus < 2 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "comprehensive_support",
				Priority:    7,
				Action:      "Assign a dedicated case manager",
				Description: "Low socioeconomic status compounds other risk factors. Coordinate academic, financial and wellbeing support.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.AssignmentTimeliness < 50 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "time_management",
				Priority:    6,
				Action:      "Offer time management workshop",
				Description: "Chronically late assignments suggest planning difficulties rather than ability gaps.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.LMSLoginsMonthly < 5 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "engagement_outreach",
				Priority:    5,
				Action:      "Trigger instructor outreach",
				Description: "Fewer than 5 LMS logins per month means the student has disengaged from course materials.",
			}
		},
	},
	{
		matches: func(r *student.Record) bool { return r.OnlineHoursWeekly < 3 },
		build: func() Recommendation {
			return Recommendation{
				Type:        "technology_access",
				Priority:    4,
				Action:      "Check device and connectivity access",
				Description: "Very low online study time can indicate missing equipment or internet access at home.",
			}
		},
	},
}

// maxRecommendations caps the list so advisors get a focused plan.
const maxRecommendations = 5

// Recommend returns the matched interventions for one student, highest
// priority first, capped at five.
func Recommend(record *student.Record) []Recommendation {
	var matched []Recommendation
	for _, r := range rules {
		if r.matches(record) {
			matched = append(matched, r.build())
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})

	if len(matched) > maxRecommendations {
		matched = matched[:maxRecommendations]
	}
	return matched
}

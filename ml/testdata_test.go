package ml

import (
	"fmt"
	"math/rand"

	"eduguard/student"
)

// syntheticRecords builds a seeded dataset with a clear risk signal:
// the first half are engaged students, the second half show the classic
// at-risk pattern (low attendance, late work, failing quizzes, unpaid
// fees, little LMS activity).
func syntheticRecords(n int) []student.Record {
	rng := rand.New(rand.NewSource(7))
	records := make([]student.Record, 0, n)

	for i := 0; i < n/2; i++ {
		records = append(records, student.Record{
			StudentID:            fmt.Sprintf("GOOD%03d", i),
			AttendancePct:        75 + rng.Float64()*20,
			AssignmentTimeliness: 70 + rng.Float64()*25,
			QuizTestAvgPct:       65 + rng.Float64()*30,
			FeePayment:           1,
			LMSLoginsMonthly:     10 + rng.Float64()*20,
			OnlineHoursWeekly:    5 + rng.Float64()*10,
			Dropout:              -1,
		})
	}
	for i := 0; i < n-n/2; i++ {
		records = append(records, student.Record{
			StudentID:            fmt.Sprintf("RISK%03d", i),
			AttendancePct:        30 + rng.Float64()*25,
			AssignmentTimeliness: 20 + rng.Float64()*25,
			QuizTestAvgPct:       25 + rng.Float64()*20,
			FeePayment:           rng.Float64() * 0.5,
			LMSLoginsMonthly:     rng.Float64() * 4,
			OnlineHoursWeekly:    rng.Float64() * 2,
			Dropout:              -1,
		})
	}

	return records
}

func quickTrainConfig() TrainConfig {
	config := DefaultTrainConfig()
	config.UseTuning = false
	config.Params = GBDTParams{NumTrees: 40, MaxDepth: 4, LearningRate: 0.1, Subsample: 0.8}
	return config
}

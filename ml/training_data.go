package ml

import (
	"math/rand"
	"sort"

	"eduguard/student"
)

// riskSeed keeps training and tests reproducible.
const riskSeed = 42

// GenerateSyntheticLabels derives dropout labels for unlabeled rows from
// rule-based risk scoring. Labeled rows keep their uploaded label.
//
// Score: +2 for attendance<60, timeliness<50, quiz<50; +1 for fee<0.5
// and logins<5. Score >= 3 means dropout.
func GenerateSyntheticLabels(records []student.Record) []int {
	labels := make([]int, len(records))
	for i := range records {
		if records[i].Dropout >= 0 {
			labels[i] = records[i].Dropout
			continue
		}

		score := 0
		if records[i].AttendancePct < 60 {
			score += 2
		}
		if records[i].AssignmentTimeliness < 50 {
			score += 2
		}
		if records[i].QuizTestAvgPct < 50 {
			score += 2
		}
		if records[i].FeePayment < 0.5 {
			score++
		}
		if records[i].LMSLoginsMonthly < 5 {
			score++
		}

		if score >= 3 {
			labels[i] = 1
		}
	}
	return labels
}

// SplitDataset performs a stratified split into train and test partitions.
// Each class is shuffled and split independently so class balance carries
// over to both partitions.
func SplitDataset(features [][]float64, labels []int, testRatio float64, rng *rand.Rand) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	byClass := make(map[int][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	for _, label := range classes {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		testCount := int(float64(len(indices)) * testRatio)
		for k, idx := range indices {
			if k < testCount {
				testX = append(testX, features[idx])
				testY = append(testY, labels[idx])
			} else {
				trainX = append(trainX, features[idx])
				trainY = append(trainY, labels[idx])
			}
		}
	}

	// Shuffle merged partitions so class blocks do not stay contiguous.
	rng.Shuffle(len(trainY), func(i, j int) {
		trainX[i], trainX[j] = trainX[j], trainX[i]
		trainY[i], trainY[j] = trainY[j], trainY[i]
	})
	rng.Shuffle(len(testY), func(i, j int) {
		testX[i], testX[j] = testX[j], testX[i]
		testY[i], testY[j] = testY[j], testY[i]
	})

	return trainX, trainY, testX, testY
}

// Oversample balances the minority class by synthesizing interpolated
// samples between random minority pairs until class counts match.
func Oversample(features [][]float64, labels []int, rng *rand.Rand) ([][]float64, []int) {
	var minority, majority []int
	for i, label := range labels {
		if label == 1 {
			minority = append(minority, i)
		} else {
			majority = append(majority, i)
		}
	}
	minorityLabel := 1
	if len(minority) > len(majority) {
		minority, majority = majority, minority
		minorityLabel = 0
	}
	if len(minority) == 0 || len(minority) == len(majority) {
		return features, labels
	}

	outX := make([][]float64, len(features))
	copy(outX, features)
	outY := make([]int, len(labels))
	copy(outY, labels)

	for len(outX)-len(features)+len(minority) < len(majority) {
		a := features[minority[rng.Intn(len(minority))]]
		b := features[minority[rng.Intn(len(minority))]]
		t := rng.Float64()

		synth := make([]float64, len(a))
		for j := range a {
			synth[j] = a[j] + t*(b[j]-a[j])
		}
		outX = append(outX, synth)
		outY = append(outY, minorityLabel)
	}

	return outX, outY
}

// classCounts tallies label frequencies.
func classCounts(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	return counts
}

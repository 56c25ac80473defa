package ml

import (
	"errors"
	"testing"

	"eduguard/student"
)

func TestTrainModelSeparatesRiskProfiles(t *testing.T) {
	records := syntheticRecords(200)

	result, err := TrainModel(records, quickTrainConfig())
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	if !result.Synthetic {
		t.Error("expected synthetic labels to be flagged")
	}
	if result.Metrics.Accuracy < 0.9 {
		t.Errorf("expected high accuracy on separable data, got %.3f", result.Metrics.Accuracy)
	}
	if result.Metrics.ROCAUC < 0.9 {
		t.Errorf("expected high AUC, got %.3f", result.Metrics.ROCAUC)
	}

	stats := result.Model.Stats
	atRisk := student.Record{
		StudentID:            "X1",
		AttendancePct:        35,
		AssignmentTimeliness: 25,
		QuizTestAvgPct:       30,
		FeePayment:           0,
		LMSLoginsMonthly:     1,
		OnlineHoursWeekly:    0.5,
	}
	engaged := student.Record{
		StudentID:            "X2",
		AttendancePct:        92,
		AssignmentTimeliness: 88,
		QuizTestAvgPct:       85,
		FeePayment:           1,
		LMSLoginsMonthly:     22,
		OnlineHoursWeekly:    11,
	}

	pRisk, err := result.Model.PredictProba(ExtractFeatures(&atRisk, stats).FeatureVector())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	pSafe, err := result.Model.PredictProba(ExtractFeatures(&engaged, stats).FeatureVector())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if pRisk < 0.6 {
		t.Errorf("expected at-risk probability above 0.6, got %.3f", pRisk)
	}
	if pSafe > 0.3 {
		t.Errorf("expected engaged probability below 0.3, got %.3f", pSafe)
	}
}

func TestTrainModelInsufficientData(t *testing.T) {
	records := syntheticRecords(10)

	_, err := TrainModel(records, quickTrainConfig())
	if err == nil {
		t.Fatal("expected error for tiny dataset")
	}
	var tErr *TrainingError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TrainingError, got %T", err)
	}
}

func TestTrainModelSingleClass(t *testing.T) {
	records := syntheticRecords(200)[:100] // only engaged students

	_, err := TrainModel(records, quickTrainConfig())
	var tErr *TrainingError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TrainingError for single class, got %v", err)
	}
}

func TestTrainModelKeepsUploadedLabels(t *testing.T) {
	records := syntheticRecords(200)
	// Flip one engaged student to a labeled dropout. The label must
	// survive synthetic scoring.
	records[0].Dropout = 1

	labels := GenerateSyntheticLabels(records)
	if labels[0] != 1 {
		t.Fatal("uploaded label was overridden")
	}
}

func TestTrainModelDeterministic(t *testing.T) {
	records := syntheticRecords(100)

	first, err := TrainModel(records, quickTrainConfig())
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	second, err := TrainModel(records, quickTrainConfig())
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}

	if first.Metrics != second.Metrics {
		t.Errorf("training is not reproducible: %+v vs %+v", first.Metrics, second.Metrics)
	}
}

func TestRocAUC(t *testing.T) {
	perfect := rocAUC([]float64{0.1, 0.2, 0.8, 0.9}, []int{0, 0, 1, 1})
	if perfect != 1.0 {
		t.Errorf("expected AUC 1.0 for perfect ranking, got %v", perfect)
	}

	inverted := rocAUC([]float64{0.9, 0.8, 0.2, 0.1}, []int{0, 0, 1, 1})
	if inverted != 0.0 {
		t.Errorf("expected AUC 0.0 for inverted ranking, got %v", inverted)
	}

	single := rocAUC([]float64{0.5, 0.6}, []int{1, 1})
	if single != 0.5 {
		t.Errorf("expected AUC 0.5 fallback, got %v", single)
	}
}

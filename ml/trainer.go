package ml

import (
	"log"
	"math/rand"
	"sort"
	"time"

	"eduguard/student"
)

// TrainConfig controls a training run.
type TrainConfig struct {
	MinDataPoints int        `yaml:"min_data_points" json:"min_data_points"`
	TestRatio     float64    `yaml:"test_ratio" json:"test_ratio"`
	UseTuning     bool       `yaml:"use_tuning" json:"use_tuning"`
	TuningTrials  int        `yaml:"tuning_trials" json:"tuning_trials"`
	UseOversample bool       `yaml:"use_oversample" json:"use_oversample"`
	Params        GBDTParams `yaml:"params" json:"params"`
}

// DefaultTrainConfig returns the standard training setup.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MinDataPoints: 20,
		TestRatio:     0.3,
		UseTuning:     true,
		TuningTrials:  20,
		UseOversample: true,
		Params:        DefaultGBDTParams(),
	}
}

// Metrics are holdout evaluation results.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	ROCAUC    float64 `json:"roc_auc"`
	TestSize  int     `json:"test_size"`
}

// TrainResult bundles the trained model with its evaluation.
type TrainResult struct {
	Model       *GradientBoosting `json:"-"`
	Metrics     Metrics           `json:"metrics"`
	Params      GBDTParams        `json:"params"`
	DataPoints  int               `json:"data_points"`
	ClassCounts map[int]int       `json:"class_counts"`
	Synthetic   bool              `json:"synthetic_labels"`
	Duration    time.Duration     `json:"-"`
	DurationMS  int64             `json:"duration_ms"`
}

// TrainModel runs the full training pipeline on cleaned records:
// labeling, feature extraction, stratified split, optional class
// balancing and hyperparameter search, final fit and evaluation.
func TrainModel(records []student.Record, config TrainConfig) (*TrainResult, error) {
	started := time.Now()

	if len(records) < config.MinDataPoints {
		return nil, &TrainingError{Reason: "insufficient data points"}
	}

	labels := GenerateSyntheticLabels(records)
	synthetic := false
	for i := range records {
		if records[i].Dropout < 0 {
			synthetic = true
			break
		}
	}

	counts := classCounts(labels)
	if len(counts) < 2 {
		return nil, &TrainingError{Reason: "all students fall into a single class"}
	}

	stats := ComputeFeatureStats(records)
	features := BuildFeatureMatrix(records, stats)

	rng := rand.New(rand.NewSource(riskSeed))
	trainX, trainY, testX, testY := SplitDataset(features, labels, config.TestRatio, rng)
	if len(testY) == 0 || len(classCounts(trainY)) < 2 {
		return nil, &TrainingError{Reason: "split left a partition without both classes"}
	}

	if config.UseOversample {
		trainX, trainY = Oversample(trainX, trainY, rng)
	}

	params := config.Params
	if params.NumTrees == 0 {
		params = DefaultGBDTParams()
	}
	if config.UseTuning && config.TuningTrials > 0 {
		params = tuneParams(trainX, trainY, params, config.TuningTrials, rng)
	}

	model := NewGradientBoosting(params)
	model.Stats = stats
	if err := model.Train(trainX, trainY); err != nil {
		return nil, err
	}

	metrics := evaluateModel(model, testX, testY)
	log.Printf("Training done: %d points, acc=%.3f f1=%.3f auc=%.3f",
		len(records), metrics.Accuracy, metrics.F1, metrics.ROCAUC)

	// 指标随模型一起持久化，热加载后状态接口仍能返回评估结果
	model.Metrics = metrics
	model.DataPoints = len(records)

	duration := time.Since(started)
	return &TrainResult{
		Model:       model,
		Metrics:     metrics,
		Params:      params,
		DataPoints:  len(records),
		ClassCounts: counts,
		Synthetic:   synthetic,
		Duration:    duration,
		DurationMS:  duration.Milliseconds(),
	}, nil
}

// tuneParams runs a bounded random search over the hyperparameter space
// and keeps the candidate with the best validation F1. The training
// partition is split again so the holdout stays untouched.
func tuneParams(features [][]float64, labels []int, base GBDTParams, trials int, rng *rand.Rand) GBDTParams {
	trainX, trainY, valX, valY := SplitDataset(features, labels, 0.25, rng)
	if len(valY) == 0 || len(classCounts(trainY)) < 2 {
		return base
	}

	treeChoices := []int{60, 80, 120, 160}
	depthChoices := []int{3, 4, 5, 6}
	lrChoices := []float64{0.03, 0.05, 0.1, 0.2}
	subsampleChoices := []float64{0.7, 0.8, 0.9, 1.0}

	best := base
	bestF1 := -1.0

	for trial := 0; trial < trials; trial++ {
		candidate := GBDTParams{
			NumTrees:     treeChoices[rng.Intn(len(treeChoices))],
			MaxDepth:     depthChoices[rng.Intn(len(depthChoices))],
			LearningRate: lrChoices[rng.Intn(len(lrChoices))],
			Subsample:    subsampleChoices[rng.Intn(len(subsampleChoices))],
		}

		model := NewGradientBoosting(candidate)
		if err := model.Train(trainX, trainY); err != nil {
			continue
		}

		metrics := evaluateModel(model, valX, valY)
		if metrics.F1 > bestF1 {
			bestF1 = metrics.F1
			best = candidate
		}
	}

	log.Printf("Hyperparameter search: best f1=%.3f trees=%d depth=%d lr=%.2f",
		bestF1, best.NumTrees, best.MaxDepth, best.LearningRate)
	return best
}

// evaluateModel computes classification metrics at the 0.5 cutoff plus
// ROC AUC over the score ranking.
func evaluateModel(model *GradientBoosting, testX [][]float64, testY []int) Metrics {
	var tp, fp, tn, fn int
	probs := make([]float64, len(testY))

	for i, x := range testX {
		p, err := model.PredictProba(x)
		if err != nil {
			continue
		}
		probs[i] = p

		predicted := 0
		if p >= 0.5 {
			predicted = 1
		}
		switch {
		case predicted == 1 && testY[i] == 1:
			tp++
		case predicted == 1 && testY[i] == 0:
			fp++
		case predicted == 0 && testY[i] == 0:
			tn++
		default:
			fn++
		}
	}

	metrics := Metrics{TestSize: len(testY)}
	total := tp + fp + tn + fn
	if total > 0 {
		metrics.Accuracy = float64(tp+tn) / float64(total)
	}
	if tp+fp > 0 {
		metrics.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		metrics.Recall = float64(tp) / float64(tp+fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	metrics.ROCAUC = rocAUC(probs, testY)

	return metrics
}

// rocAUC computes AUC via the rank-sum formulation, averaging ranks
// across tied scores.
func rocAUC(probs []float64, labels []int) float64 {
	type scored struct {
		prob  float64
		label int
	}
	items := make([]scored, len(probs))
	for i := range probs {
		items[i] = scored{probs[i], labels[i]}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].prob < items[j].prob })

	var positives, negatives int
	for _, item := range items {
		if item.label == 1 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0.5
	}

	var rankSum float64
	i := 0
	for i < len(items) {
		j := i
		for j < len(items) && items[j].prob == items[i].prob {
			j++
		}
		// ranks are 1-based, ties share the average rank
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if items[k].label == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}

	return (rankSum - float64(positives)*float64(positives+1)/2) /
		(float64(positives) * float64(negatives))
}

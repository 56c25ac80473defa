package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// GBDTParams are the tunable hyperparameters.
type GBDTParams struct {
	NumTrees     int     `yaml:"num_trees" json:"num_trees"`
	MaxDepth     int     `yaml:"max_depth" json:"max_depth"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	Subsample    float64 `yaml:"subsample" json:"subsample"`
}

// DefaultGBDTParams returns the baseline configuration.
func DefaultGBDTParams() GBDTParams {
	return GBDTParams{
		NumTrees:     120,
		MaxDepth:     6,
		LearningRate: 0.05,
		Subsample:    0.8,
	}
}

// GradientBoosting is a binary classifier boosting regression trees on
// logistic loss. Prediction accumulates tree outputs in log-odds space.
type GradientBoosting struct {
	Params       GBDTParams       `json:"params"`
	Trees        []RegressionTree `json:"trees"`
	BaseScore    float64          `json:"base_score"`
	FeatureNames []string         `json:"feature_names"`
	Stats        FeatureStats     `json:"feature_stats"`
	Metrics      Metrics          `json:"metrics"`
	DataPoints   int              `json:"data_points"`
	TrainedAt    time.Time        `json:"trained_at"`
	Trained      bool             `json:"trained"`

	rng *rand.Rand
}

// NewGradientBoosting creates an untrained classifier.
func NewGradientBoosting(params GBDTParams) *GradientBoosting {
	return &GradientBoosting{
		Params:       params,
		FeatureNames: FeatureNames(),
		rng:          rand.New(rand.NewSource(riskSeed)),
	}
}

// Train fits the ensemble. Requires both classes to be present.
func (gb *GradientBoosting) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(features) != len(labels) {
		return &TrainingError{Reason: "empty or mismatched training data"}
	}

	counts := classCounts(labels)
	if len(counts) < 2 {
		return &TrainingError{Reason: "training data contains a single class"}
	}

	if gb.rng == nil {
		gb.rng = rand.New(rand.NewSource(riskSeed))
	}

	n := len(labels)
	positive := float64(counts[1])
	prior := positive / float64(n)
	gb.BaseScore = math.Log(prior / (1 - prior))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = gb.BaseScore
	}

	gradients := make([]float64, n)
	hessians := make([]float64, n)
	targets := make([]float64, n)
	for i, label := range labels {
		targets[i] = float64(label)
	}

	gb.Trees = make([]RegressionTree, 0, gb.Params.NumTrees)

	for round := 0; round < gb.Params.NumTrees; round++ {
		for i := 0; i < n; i++ {
			p := sigmoid(scores[i])
			gradients[i] = targets[i] - p
			hessians[i] = p * (1 - p)
		}

		indices := gb.sampleRows(n)

		tree := NewRegressionTree(gb.Params.MaxDepth)
		tree.Fit(features, gradients, hessians, indices)

		for i := 0; i < n; i++ {
			scores[i] += gb.Params.LearningRate * tree.Predict(features[i])
		}

		gb.Trees = append(gb.Trees, *tree)
	}

	gb.Trained = true
	gb.TrainedAt = time.Now()
	return nil
}

// PredictProba returns the dropout probability for one feature vector.
func (gb *GradientBoosting) PredictProba(features []float64) (float64, error) {
	if !gb.Trained {
		return 0, ErrModelNotTrained
	}
	return sigmoid(gb.rawScore(features)), nil
}

// rawScore accumulates the log-odds output.
func (gb *GradientBoosting) rawScore(features []float64) float64 {
	score := gb.BaseScore
	for i := range gb.Trees {
		score += gb.Params.LearningRate * gb.Trees[i].Predict(features)
	}
	return score
}

// sampleRows draws the subsample for one boosting round without
// replacement. Subsample >= 1 uses every row.
func (gb *GradientBoosting) sampleRows(n int) []int {
	if gb.Params.Subsample >= 1 || gb.Params.Subsample <= 0 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	perm := gb.rng.Perm(n)
	count := int(float64(n) * gb.Params.Subsample)
	if count < 1 {
		count = 1
	}
	return perm[:count]
}

// Save persists the model as JSON.
func (gb *GradientBoosting) Save(path string) error {
	if !gb.Trained {
		return ErrModelNotTrained
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(gb)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	// Write then rename so readers never observe a partial file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load restores a model saved by Save.
func (gb *GradientBoosting) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, gb); err != nil {
		return fmt.Errorf("unmarshal model: %w", err)
	}
	if len(gb.Trees) == 0 {
		return fmt.Errorf("model file has no trees")
	}
	gb.Trained = true
	gb.rng = rand.New(rand.NewSource(riskSeed))
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

package ml

import (
	"errors"
	"fmt"
)

// ErrModelNotTrained is returned by prediction and explanation entry
// points before a model has been trained or loaded.
var ErrModelNotTrained = errors.New("model not trained")

// TrainingError reports a dataset that cannot produce a usable model.
type TrainingError struct {
	Reason string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed: %s", e.Reason)
}

// MLModel defines the interface for trainable classifiers.
type MLModel interface {
	Train(features [][]float64, labels []int) error
	PredictProba(features []float64) (float64, error)
	Save(filepath string) error
	Load(filepath string) error
}

// RiskTier buckets a dropout probability.
type RiskTier string

const (
	RiskHigh   RiskTier = "High"
	RiskMedium RiskTier = "Medium"
	RiskLow    RiskTier = "Low"
)

// RiskThresholds holds the tier cut points.
type RiskThresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// DefaultRiskThresholds returns the standard tier boundaries.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{High: 0.65, Medium: 0.35}
}

// Tier maps a probability to its risk tier. Probabilities at or above
// the high cut are High, at or above the medium cut are Medium.
func (rt RiskThresholds) Tier(probability float64) RiskTier {
	if probability >= rt.High {
		return RiskHigh
	}
	if probability >= rt.Medium {
		return RiskMedium
	}
	return RiskLow
}

// Prediction is the scored output for one student.
type Prediction struct {
	StudentID   string   `json:"student_id"`
	StudentName string   `json:"student_name,omitempty"`
	Probability float64  `json:"dropout_probability"`
	Tier        RiskTier `json:"risk_tier"`
}

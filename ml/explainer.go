package ml

import (
	"math"
	"sort"
)

// FeatureImpact is one feature's contribution to a prediction, in
// log-odds space. Positive values push toward dropout.
type FeatureImpact struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// GlobalImportance summarizes one feature across a dataset.
type GlobalImportance struct {
	Feature       string  `json:"feature"`
	MeanAbsImpact float64 `json:"mean_abs_impact"`
	PositiveShare float64 `json:"positive_share"`
	NegativeShare float64 `json:"negative_share"`
}

// Explainer derives per-feature contributions from the boosted trees by
// decomposing each root-to-leaf path: crossing a split reassigns the
// change in expected value to the split feature.
type Explainer struct {
	model *GradientBoosting
}

// NewExplainer wraps a trained model.
func NewExplainer(model *GradientBoosting) (*Explainer, error) {
	if model == nil || !model.Trained {
		return nil, ErrModelNotTrained
	}
	return &Explainer{model: model}, nil
}

// Contributions returns per-feature log-odds contributions for one
// feature vector, aligned with FeatureNames.
func (e *Explainer) Contributions(features []float64) []float64 {
	contributions := make([]float64, len(e.model.FeatureNames))

	for t := range e.model.Trees {
		tree := &e.model.Trees[t]
		path := tree.PredictPath(features)

		for step := 0; step+1 < len(path); step++ {
			parent := tree.Nodes[path[step]]
			child := tree.Nodes[path[step+1]]
			delta := child.Value - parent.Value
			contributions[parent.FeatureIndex] += e.model.Params.LearningRate * delta
		}
	}

	return contributions
}

// ExplainLocal returns the strongest signed contributions for one
// prediction, largest magnitude first.
func (e *Explainer) ExplainLocal(features []float64, topK int) []FeatureImpact {
	contributions := e.Contributions(features)

	impacts := make([]FeatureImpact, len(contributions))
	for i, c := range contributions {
		impacts[i] = FeatureImpact{
			Feature:      e.model.FeatureNames[i],
			Value:        features[i],
			Contribution: c,
		}
	}

	sort.Slice(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].Contribution) > math.Abs(impacts[j].Contribution)
	})

	if topK > 0 && topK < len(impacts) {
		impacts = impacts[:topK]
	}
	return impacts
}

// ExplainGlobal aggregates contributions over a feature matrix: mean
// absolute impact per feature plus the share of rows each feature pushed
// toward or away from dropout. Ranked by mean absolute impact.
func (e *Explainer) ExplainGlobal(matrix [][]float64) []GlobalImportance {
	names := e.model.FeatureNames
	absSum := make([]float64, len(names))
	posCount := make([]float64, len(names))
	negCount := make([]float64, len(names))

	for _, features := range matrix {
		contributions := e.Contributions(features)
		for i, c := range contributions {
			absSum[i] += math.Abs(c)
			if c > 0 {
				posCount[i]++
			} else if c < 0 {
				negCount[i]++
			}
		}
	}

	n := float64(len(matrix))
	importance := make([]GlobalImportance, len(names))
	for i, name := range names {
		importance[i] = GlobalImportance{Feature: name}
		if n > 0 {
			importance[i].MeanAbsImpact = absSum[i] / n
			importance[i].PositiveShare = posCount[i] / n
			importance[i].NegativeShare = negCount[i] / n
		}
	}

	sort.Slice(importance, func(i, j int) bool {
		return importance[i].MeanAbsImpact > importance[j].MeanAbsImpact
	})
	return importance
}

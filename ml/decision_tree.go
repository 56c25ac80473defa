package ml

import (
	"math"
	"sort"
)

// TreeNode is a node in a flat tree array. Left and Right are offsets
// relative to the node's own index, leaves keep both at zero.
type TreeNode struct {
	FeatureIndex int     `json:"feature_index"`
	Threshold    float64 `json:"threshold"`
	Left         int     `json:"left"`
	Right        int     `json:"right"`
	Value        float64 `json:"value"`
	IsLeaf       bool    `json:"is_leaf"`
}

// RegressionTree fits gradient/hessian statistics with squared-loss
// splits and Newton leaf values. Used as the weak learner in boosting.
type RegressionTree struct {
	Nodes          []TreeNode `json:"nodes"`
	MaxDepth       int        `json:"max_depth"`
	MinSamplesLeaf int        `json:"min_samples_leaf"`

	// L2 regularization on leaf values
	Lambda float64 `json:"lambda"`
}

// NewRegressionTree creates a weak learner with the given depth limit.
func NewRegressionTree(maxDepth int) *RegressionTree {
	return &RegressionTree{
		MaxDepth:       maxDepth,
		MinSamplesLeaf: 2,
		Lambda:         1.0,
	}
}

// Fit builds the tree on the rows named by indices.
func (t *RegressionTree) Fit(features [][]float64, gradients, hessians []float64, indices []int) {
	t.Nodes = t.Nodes[:0]
	t.buildNode(features, gradients, hessians, indices, 0)
}

// buildNode appends the subtree for indices and returns its node count.
func (t *RegressionTree) buildNode(features [][]float64, gradients, hessians []float64, indices []int, depth int) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{})

	sumG, sumH := sumStats(gradients, hessians, indices)
	value := newtonValue(sumG, sumH, t.Lambda)

	if depth >= t.MaxDepth || len(indices) < 2*t.MinSamplesLeaf {
		t.Nodes[nodeIdx] = TreeNode{IsLeaf: true, Value: value}
		return 1
	}

	feature, threshold, gain := t.findBestSplit(features, gradients, hessians, indices, sumG, sumH)
	if gain <= 1e-9 {
		t.Nodes[nodeIdx] = TreeNode{IsLeaf: true, Value: value}
		return 1
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if features[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < t.MinSamplesLeaf || len(rightIdx) < t.MinSamplesLeaf {
		t.Nodes[nodeIdx] = TreeNode{IsLeaf: true, Value: value}
		return 1
	}

	leftSize := t.buildNode(features, gradients, hessians, leftIdx, depth+1)
	rightSize := t.buildNode(features, gradients, hessians, rightIdx, depth+1)

	t.Nodes[nodeIdx] = TreeNode{
		FeatureIndex: feature,
		Threshold:    threshold,
		Left:         1,
		Right:        1 + leftSize,
		Value:        value,
	}

	return 1 + leftSize + rightSize
}

// findBestSplit scans quantile thresholds per feature and returns the
// split with the largest gain over keeping the node whole.
func (t *RegressionTree) findBestSplit(features [][]float64, gradients, hessians []float64, indices []int, sumG, sumH float64) (int, float64, float64) {
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentScore := sumG * sumG / (sumH + t.Lambda)

	numFeatures := len(features[indices[0]])
	values := make([]float64, 0, len(indices))

	for f := 0; f < numFeatures; f++ {
		values = values[:0]
		for _, i := range indices {
			values = append(values, features[i][f])
		}
		thresholds := quantileThresholds(values, 16)

		for _, threshold := range thresholds {
			var gL, hL float64
			for _, i := range indices {
				if features[i][f] <= threshold {
					gL += gradients[i]
					hL += hessians[i]
				}
			}
			gR := sumG - gL
			hR := sumH - hL
			if hL < 1e-9 || hR < 1e-9 {
				continue
			}

			gain := gL*gL/(hL+t.Lambda) + gR*gR/(hR+t.Lambda) - parentScore
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, threshold, gain
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// Predict returns the leaf value for one feature vector.
func (t *RegressionTree) Predict(features []float64) float64 {
	idx := 0
	for !t.Nodes[idx].IsLeaf {
		node := t.Nodes[idx]
		if features[node.FeatureIndex] <= node.Threshold {
			idx += node.Left
		} else {
			idx += node.Right
		}
	}
	return t.Nodes[idx].Value
}

// PredictPath returns the node indices visited from root to leaf.
func (t *RegressionTree) PredictPath(features []float64) []int {
	path := []int{0}
	idx := 0
	for !t.Nodes[idx].IsLeaf {
		node := t.Nodes[idx]
		if features[node.FeatureIndex] <= node.Threshold {
			idx += node.Left
		} else {
			idx += node.Right
		}
		path = append(path, idx)
	}
	return path
}

func sumStats(gradients, hessians []float64, indices []int) (float64, float64) {
	var sumG, sumH float64
	for _, i := range indices {
		sumG += gradients[i]
		sumH += hessians[i]
	}
	return sumG, sumH
}

func newtonValue(sumG, sumH, lambda float64) float64 {
	if sumH+lambda < 1e-12 {
		return 0
	}
	return sumG / (sumH + lambda)
}

// quantileThresholds returns up to maxCuts distinct candidate thresholds.
func quantileThresholds(values []float64, maxCuts int) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	if len(distinct) <= maxCuts {
		cuts := make([]float64, 0, len(distinct)-1)
		for i := 0; i+1 < len(distinct); i++ {
			cuts = append(cuts, (distinct[i]+distinct[i+1])/2)
		}
		return cuts
	}

	cuts := make([]float64, 0, maxCuts)
	step := float64(len(distinct)) / float64(maxCuts+1)
	for k := 1; k <= maxCuts; k++ {
		idx := int(math.Floor(step * float64(k)))
		if idx >= len(distinct)-1 {
			idx = len(distinct) - 2
		}
		cuts = append(cuts, (distinct[idx]+distinct[idx+1])/2)
	}
	return cuts
}

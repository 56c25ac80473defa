package ml

import (
	"math"
	"testing"
)

func TestRegressionTreeSplitsOnSignal(t *testing.T) {
	// Gradients encode a step function of the first feature.
	features := [][]float64{
		{1, 0}, {2, 0}, {3, 0}, {4, 0},
		{10, 0}, {11, 0}, {12, 0}, {13, 0},
	}
	gradients := []float64{-1, -1, -1, -1, 1, 1, 1, 1}
	hessians := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	indices := []int{0, 1, 2, 3, 4, 5, 6, 7}

	tree := NewRegressionTree(3)
	tree.Fit(features, gradients, hessians, indices)

	if len(tree.Nodes) < 3 {
		t.Fatalf("expected a split, got %d nodes", len(tree.Nodes))
	}
	root := tree.Nodes[0]
	if root.IsLeaf {
		t.Fatal("root should not be a leaf")
	}
	if root.FeatureIndex != 0 {
		t.Errorf("expected split on feature 0, got %d", root.FeatureIndex)
	}
	if root.Threshold < 4 || root.Threshold > 10 {
		t.Errorf("threshold should separate the groups, got %v", root.Threshold)
	}

	low := tree.Predict([]float64{2, 0})
	high := tree.Predict([]float64{12, 0})
	if low >= 0 || high <= 0 {
		t.Errorf("leaf values do not follow gradients: low=%v high=%v", low, high)
	}
}

func TestRegressionTreeConstantTarget(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	gradients := []float64{0.5, 0.5, 0.5, 0.5}
	hessians := []float64{1, 1, 1, 1}

	tree := NewRegressionTree(3)
	tree.Fit(features, gradients, hessians, []int{0, 1, 2, 3})

	if len(tree.Nodes) != 1 || !tree.Nodes[0].IsLeaf {
		t.Fatalf("constant gradients should produce a single leaf, got %d nodes", len(tree.Nodes))
	}
	// Newton value with lambda=1: 2.0 / (4 + 1)
	if math.Abs(tree.Nodes[0].Value-0.4) > 1e-9 {
		t.Errorf("unexpected leaf value %v", tree.Nodes[0].Value)
	}
}

func TestPredictPathEndsAtLeaf(t *testing.T) {
	features := [][]float64{
		{1, 5}, {2, 5}, {3, 5}, {4, 5},
		{10, 5}, {11, 5}, {12, 5}, {13, 5},
	}
	gradients := []float64{-1, -1, -1, -1, 1, 1, 1, 1}
	hessians := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	tree := NewRegressionTree(3)
	tree.Fit(features, gradients, hessians, []int{0, 1, 2, 3, 4, 5, 6, 7})

	path := tree.PredictPath([]float64{2, 5})
	if path[0] != 0 {
		t.Fatal("path must start at root")
	}
	last := tree.Nodes[path[len(path)-1]]
	if !last.IsLeaf {
		t.Fatal("path must end at a leaf")
	}
	if last.Value != tree.Predict([]float64{2, 5}) {
		t.Error("path leaf disagrees with Predict")
	}
}

func TestQuantileThresholds(t *testing.T) {
	cuts := quantileThresholds([]float64{1, 1, 1}, 16)
	if cuts != nil {
		t.Errorf("constant column should yield no thresholds, got %v", cuts)
	}

	cuts = quantileThresholds([]float64{1, 2}, 16)
	if len(cuts) != 1 || cuts[0] != 1.5 {
		t.Errorf("expected single midpoint 1.5, got %v", cuts)
	}

	many := make([]float64, 100)
	for i := range many {
		many[i] = float64(i)
	}
	cuts = quantileThresholds(many, 16)
	if len(cuts) != 16 {
		t.Errorf("expected 16 quantile cuts, got %d", len(cuts))
	}
}

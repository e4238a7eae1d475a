package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// TreeConfig controls the growth of a single regression tree.
type TreeConfig struct {
	MaxDepth       int `json:"max_depth" yaml:"max_depth"`
	MinSamplesLeaf int `json:"min_samples_leaf" yaml:"min_samples_leaf"`
}

// RegressionTree is a CART tree minimising squared error. Nodes are stored
// flat; child indices are absolute positions in Nodes.
type RegressionTree struct {
	Config TreeConfig `json:"config"`
	Nodes  []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

func NewRegressionTree(config TreeConfig) *RegressionTree {
	return &RegressionTree{Config: config}
}

func (dt *RegressionTree) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	dt.Nodes = dt.Nodes[:0]
	dt.grow(features, targets, indices, 0)
	return nil
}

func (dt *RegressionTree) Predict(features []float64) (float64, error) {
	if len(dt.Nodes) == 0 {
		return 0, ErrModelNotInitialized
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *RegressionTree) Save(path string) error {
	if len(dt.Nodes) == 0 {
		return ErrModelNotInitialized
	}
	payload, err := json.Marshal(dt)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *RegressionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded RegressionTree
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	if err := loaded.validate(0); err != nil {
		return err
	}
	*dt = loaded
	return nil
}

// validate checks a decoded tree before it is used. Children of a split must
// come after it in Nodes, which also rules out cycles. width bounds the
// feature indices when positive.
func (dt *RegressionTree) validate(width int) error {
	if dt == nil || len(dt.Nodes) == 0 {
		return ErrModelNotInitialized
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || (width > 0 && node.FeatureIdx >= width) {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range [2]int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(dt.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	return nil
}

// grow appends the subtree for indices and returns the index of its root.
func (dt *RegressionTree) grow(features [][]float64, targets []float64, indices []int, depth int) int {
	self := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      meanOf(targets, indices),
		IsLeaf:     true,
	})

	minLeaf := dt.Config.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}
	if dt.Config.MaxDepth > 0 && depth >= dt.Config.MaxDepth {
		return self
	}
	if len(indices) < 2*minLeaf || isConstant(targets, indices) {
		return self
	}

	feature, threshold, ok := bestSplit(features, targets, indices, minLeaf)
	if !ok {
		return self
	}
	left, right := partition(features, indices, feature, threshold)
	if len(left) == 0 || len(right) == 0 {
		return self
	}

	leftIdx := dt.grow(features, targets, left, depth+1)
	rightIdx := dt.grow(features, targets, right, depth+1)
	dt.Nodes[self] = TreeNode{
		FeatureIdx: feature,
		Threshold:  threshold,
		LeftChild:  leftIdx,
		RightChild: rightIdx,
		Value:      dt.Nodes[self].Value,
		IsLeaf:     false,
	}
	return self
}

// bestSplit scans every feature for the threshold with the lowest summed
// squared error, using running sums over the sorted samples.
func bestSplit(features [][]float64, targets []float64, indices []int, minLeaf int) (int, float64, bool) {
	n := len(indices)
	featureCount := len(features[indices[0]])
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := 0.0

	var totalSum, totalSq float64
	for _, i := range indices {
		totalSum += targets[i]
		totalSq += targets[i] * targets[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)

	sorted := make([]int, n)
	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return features[sorted[a]][featureIdx] < features[sorted[b]][featureIdx]
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			y := targets[sorted[k]]
			leftSum += y
			leftSq += y * y
			leftN := k + 1
			rightN := n - leftN
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			current := features[sorted[k]][featureIdx]
			next := features[sorted[k+1]][featureIdx]
			if current == next {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(leftN)) + (rightSq - rightSum*rightSum/float64(rightN))
			gain := parentSSE - sse
			if bestFeature == -1 || gain > bestScore {
				bestFeature = featureIdx
				bestThreshold = (current + next) / 2
				bestScore = gain
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func partition(features [][]float64, indices []int, featureIdx int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if features[i][featureIdx] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func meanOf(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += targets[i]
	}
	return sum / float64(len(indices))
}

func isConstant(targets []float64, indices []int) bool {
	if len(indices) == 0 {
		return true
	}
	first := targets[indices[0]]
	for _, i := range indices[1:] {
		if targets[i] != first {
			return false
		}
	}
	return true
}

package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
)

// ForestConfig is shared by every target; the same ensemble settings are
// used regardless of the target's distribution.
type ForestConfig struct {
	NEstimators int        `json:"n_estimators" yaml:"n_estimators"`
	Seed        int64      `json:"seed" yaml:"seed"`
	Tree        TreeConfig `json:"tree" yaml:"tree"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NEstimators: 100,
		Seed:        42,
		Tree:        TreeConfig{MinSamplesLeaf: 1},
	}
}

// RandomForest averages bootstrap-trained regression trees. Randomness is
// confined to Train; Predict is deterministic.
type RandomForest struct {
	Config ForestConfig      `json:"config"`
	Trees  []*RegressionTree `json:"trees"`
}

func NewRandomForest(config ForestConfig) *RandomForest {
	if config.NEstimators <= 0 {
		config.NEstimators = DefaultForestConfig().NEstimators
	}
	return &RandomForest{Config: config}
}

func (rf *RandomForest) Train(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}

	rng := rand.New(rand.NewSource(rf.Config.Seed))
	n := len(features)
	trees := make([]*RegressionTree, 0, rf.Config.NEstimators)
	sampleX := make([][]float64, n)
	sampleY := make([]float64, n)
	for t := 0; t < rf.Config.NEstimators; t++ {
		for i := 0; i < n; i++ {
			pick := rng.Intn(n)
			sampleX[i] = features[pick]
			sampleY[i] = targets[pick]
		}
		tree := NewRegressionTree(rf.Config.Tree)
		if err := tree.Train(sampleX, sampleY); err != nil {
			return err
		}
		trees = append(trees, tree)
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForest) Predict(features []float64) (float64, error) {
	if len(rf.Trees) == 0 {
		return 0, ErrModelNotInitialized
	}
	sum := 0.0
	for _, tree := range rf.Trees {
		value, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		sum += value
	}
	return sum / float64(len(rf.Trees)), nil
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.Trees) == 0 {
		return ErrModelNotInitialized
	}
	payload, err := json.Marshal(rf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded RandomForest
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	if err := loaded.validate(0); err != nil {
		return err
	}
	*rf = loaded
	return nil
}

func (rf *RandomForest) validate(width int) error {
	if len(rf.Trees) == 0 {
		return ErrModelNotInitialized
	}
	for i, tree := range rf.Trees {
		if err := tree.validate(width); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

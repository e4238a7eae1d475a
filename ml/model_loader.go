package ml

import (
	"encoding/json"
	"fmt"
)

const (
	ModelTypeRandomForest   = "random_forest"
	ModelTypeRegressionTree = "regression_tree"
)

// NewRegressor returns an untrained model of the given type.
func NewRegressor(modelType string, config ForestConfig) (Regressor, error) {
	switch modelType {
	case "", ModelTypeRandomForest:
		return NewRandomForest(config), nil
	case ModelTypeRegressionTree:
		return NewRegressionTree(config.Tree), nil
	default:
		return nil, fmt.Errorf("unknown model type: %s", modelType)
	}
}

// LoadModel reads a single standalone model file.
func LoadModel(modelType, path string) (Regressor, error) {
	model, err := NewRegressor(modelType, ForestConfig{})
	if err != nil {
		return nil, err
	}
	if err := model.Load(path); err != nil {
		return nil, err
	}
	return model, nil
}

// decodeRegressor rebuilds a model from a bundle artifact and checks its
// structure against the feature width.
func decodeRegressor(modelType string, raw json.RawMessage, width int) (Regressor, error) {
	switch modelType {
	case ModelTypeRandomForest:
		var rf RandomForest
		if err := json.Unmarshal(raw, &rf); err != nil {
			return nil, err
		}
		if err := rf.validate(width); err != nil {
			return nil, err
		}
		return &rf, nil
	case ModelTypeRegressionTree:
		var tree RegressionTree
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, err
		}
		if err := tree.validate(width); err != nil {
			return nil, err
		}
		return &tree, nil
	default:
		return nil, fmt.Errorf("unknown model type: %s", modelType)
	}
}

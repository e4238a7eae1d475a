package ml

import "errors"

var ErrModelNotInitialized = errors.New("model not initialized: train or load first")

// Regressor maps a scaled feature vector to a single scaled target value.
type Regressor interface {
	Train(features [][]float64, targets []float64) error
	Predict(features []float64) (float64, error)
	Save(path string) error
	Load(path string) error
}

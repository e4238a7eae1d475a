package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

var ErrIncompleteBundle = errors.New("model bundle incomplete")

const bundleVersion = 1

// NutritionPredictor trains one scaler and one regressor per nutrient target
// on a shared standardized feature space. After Train or Load returns, the
// state is only read, so concurrent Predict calls are safe; Train and Load
// must not overlap with Predict.
type NutritionPredictor struct {
	modelType     string
	config        ForestConfig
	featureScaler *Scaler
	targets       map[NutrientTarget]targetModel
}

type targetModel struct {
	scaler *Scaler
	model  Regressor
}

func NewNutritionPredictor(modelType string, config ForestConfig) (*NutritionPredictor, error) {
	if modelType == "" {
		modelType = ModelTypeRandomForest
	}
	if _, err := NewRegressor(modelType, config); err != nil {
		return nil, err
	}
	return &NutritionPredictor{modelType: modelType, config: config}, nil
}

func (p *NutritionPredictor) ModelType() string {
	return p.modelType
}

// Ready reports whether Predict can be called.
func (p *NutritionPredictor) Ready() bool {
	return p != nil && p.featureScaler != nil && len(p.targets) == len(targetOrder)
}

// Train fits the feature scaler and all target models. On error the
// previous state is kept.
func (p *NutritionPredictor) Train(dataset *Dataset) error {
	if dataset == nil || dataset.Len() == 0 {
		return errors.New("dataset is empty")
	}
	required := append(FeatureNames(), targetNames()...)
	if err := dataset.RequireColumns(required...); err != nil {
		return err
	}

	features, err := dataset.Select(FeatureNames())
	if err != nil {
		return err
	}
	featureScaler := &Scaler{}
	scaledX, err := featureScaler.FitTransform(features)
	if err != nil {
		return fmt.Errorf("fit feature scaler: %w", err)
	}

	targets := make(map[NutrientTarget]targetModel, len(targetOrder))
	for _, target := range targetOrder {
		zap.L().Info("training target model",
			zap.String("target", string(target)),
			zap.String("model_type", p.modelType),
			zap.Int("rows", dataset.Len()))

		values, err := dataset.Column(string(target))
		if err != nil {
			return err
		}
		column := make([][]float64, len(values))
		for i, v := range values {
			column[i] = []float64{v}
		}
		targetScaler := &Scaler{}
		scaledY, err := targetScaler.FitTransform(column)
		if err != nil {
			return fmt.Errorf("fit scaler for %s: %w", target, err)
		}
		flat := make([]float64, len(scaledY))
		for i, row := range scaledY {
			flat[i] = row[0]
		}

		model, err := NewRegressor(p.modelType, p.config)
		if err != nil {
			return err
		}
		if err := model.Train(scaledX, flat); err != nil {
			return fmt.Errorf("train %s: %w", target, err)
		}
		targets[target] = targetModel{scaler: targetScaler, model: model}
	}

	p.featureScaler = featureScaler
	p.targets = targets
	return nil
}

func (p *NutritionPredictor) Predict(breedClassCode int, targetWeight, bodyWeight, adg float64) (PredictionRecord, error) {
	return p.PredictVector(FeatureVector{
		BreedClassCode:   breedClassCode,
		TargetWeight:     targetWeight,
		BodyWeight:       bodyWeight,
		AverageDailyGain: adg,
	})
}

func (p *NutritionPredictor) PredictVector(vector FeatureVector) (PredictionRecord, error) {
	if !p.Ready() {
		return nil, ErrModelNotInitialized
	}
	zap.L().Debug("predict",
		zap.Int("type", vector.BreedClassCode),
		zap.Float64("target_weight", vector.TargetWeight),
		zap.Float64("body_weight", vector.BodyWeight),
		zap.Float64("adg", vector.AverageDailyGain))

	scaled, err := p.featureScaler.Transform(vector.Values())
	if err != nil {
		return nil, err
	}
	record := make(PredictionRecord, len(targetOrder))
	for _, target := range targetOrder {
		tm := p.targets[target]
		raw, err := tm.model.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", target, err)
		}
		value, err := tm.scaler.InverseTransform([]float64{raw})
		if err != nil {
			return nil, fmt.Errorf("inverse transform %s: %w", target, err)
		}
		record[target] = value[0]
	}
	return record, nil
}

type bundleFile struct {
	Version       int                               `json:"version"`
	ModelType     string                            `json:"model_type"`
	Features      []string                          `json:"features"`
	FeatureScaler *Scaler                           `json:"feature_scaler"`
	Targets       map[NutrientTarget]targetArtifact `json:"targets"`
}

type targetArtifact struct {
	Scaler *Scaler         `json:"scaler"`
	Model  json.RawMessage `json:"model"`
}

// Save writes the feature scaler and every target artifact as one file. The
// file is written next to path and renamed into place.
func (p *NutritionPredictor) Save(path string) error {
	if !p.Ready() {
		return ErrModelNotInitialized
	}
	bundle := bundleFile{
		Version:       bundleVersion,
		ModelType:     p.modelType,
		Features:      FeatureNames(),
		FeatureScaler: p.featureScaler,
		Targets:       make(map[NutrientTarget]targetArtifact, len(p.targets)),
	}
	for _, target := range targetOrder {
		tm := p.targets[target]
		raw, err := json.Marshal(tm.model)
		if err != nil {
			return fmt.Errorf("encode %s: %w", target, err)
		}
		bundle.Targets[target] = targetArtifact{Scaler: tm.scaler, Model: raw}
	}
	payload, err := json.Marshal(bundle)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load replaces the predictor state with the bundle at path. Every target
// must be present; on any error the receiver is unchanged.
func (p *NutritionPredictor) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var bundle bundleFile
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}
	if bundle.Version != bundleVersion {
		return fmt.Errorf("unsupported bundle version %d", bundle.Version)
	}
	if !sameColumns(bundle.Features, FeatureNames()) {
		return fmt.Errorf("%w: feature columns %v", ErrIncompleteBundle, bundle.Features)
	}
	if bundle.FeatureScaler.Width() != len(featureOrder) {
		return fmt.Errorf("%w: feature scaler", ErrIncompleteBundle)
	}

	targets := make(map[NutrientTarget]targetModel, len(targetOrder))
	for _, target := range targetOrder {
		artifact, ok := bundle.Targets[target]
		if !ok {
			return fmt.Errorf("%w: missing target %s", ErrIncompleteBundle, target)
		}
		if artifact.Scaler.Width() != 1 {
			return fmt.Errorf("%w: scaler for %s", ErrIncompleteBundle, target)
		}
		model, err := decodeRegressor(bundle.ModelType, artifact.Model, len(featureOrder))
		if err != nil {
			return fmt.Errorf("%w: model for %s: %v", ErrIncompleteBundle, target, err)
		}
		targets[target] = targetModel{scaler: artifact.Scaler, model: model}
	}

	p.modelType = bundle.ModelType
	p.featureScaler = bundle.FeatureScaler
	p.targets = targets
	return nil
}

// LoadNutritionPredictor is a convenience for callers that only predict.
func LoadNutritionPredictor(path string) (*NutritionPredictor, error) {
	p := &NutritionPredictor{}
	if err := p.Load(path); err != nil {
		return nil, err
	}
	return p, nil
}

func targetNames() []string {
	names := make([]string, len(targetOrder))
	for i, target := range targetOrder {
		names[i] = string(target)
	}
	return names
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cattlefeed/db"
	"cattlefeed/ml"
)

type TrainingConfig struct {
	DatasetPath string
	ModelType   string
	ModelPath   string
	Forest      ml.ForestConfig
	TestRatio   float64
}

type TrainingResult struct {
	Predictor  *ml.NutritionPredictor
	Evaluation ml.Evaluation
	DataPoints int
	TrainedAt  time.Time
}

// Train loads the dataset, trains on it and writes the bundle to ModelPath
// when set.
func Train(config TrainingConfig) (*TrainingResult, error) {
	if config.DatasetPath == "" {
		return nil, errors.New("dataset path is required")
	}
	dataset, err := LoadDataset(config.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return TrainDataset(dataset, config)
}

// TrainDataset scores the configuration on a hold-out split with a
// throwaway predictor, then fits the saved predictor on every row. A
// TestRatio of zero skips the scoring step.
func TrainDataset(dataset *ml.Dataset, config TrainingConfig) (*TrainingResult, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, errors.New("dataset is empty")
	}
	start := time.Now()

	var evaluation ml.Evaluation
	train, test := dataset.Split(config.TestRatio)
	if test.Len() > 0 {
		if train.Len() == 0 {
			return nil, fmt.Errorf("test ratio %.2f leaves no rows to train on", config.TestRatio)
		}
		scratch, err := ml.NewNutritionPredictor(config.ModelType, config.Forest)
		if err != nil {
			return nil, err
		}
		if err := scratch.Train(train); err != nil {
			return nil, err
		}
		evaluation, err = ml.Evaluate(scratch, test)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
	}

	predictor, err := ml.NewNutritionPredictor(config.ModelType, config.Forest)
	if err != nil {
		return nil, err
	}
	if err := predictor.Train(dataset); err != nil {
		return nil, err
	}

	result := &TrainingResult{
		Predictor:  predictor,
		Evaluation: evaluation,
		DataPoints: dataset.Len(),
		TrainedAt:  time.Now().UTC(),
	}
	zap.L().Info("training finished",
		zap.String("model_type", predictor.ModelType()),
		zap.Int("rows", dataset.Len()),
		zap.Int("holdout_rows", test.Len()),
		zap.Float64("mean_r2", evaluation.MeanR2()),
		zap.Float64("mean_mae", evaluation.MeanMAE()),
		zap.Duration("elapsed", time.Since(start)))

	if config.ModelPath != "" {
		if err := predictor.Save(config.ModelPath); err != nil {
			return nil, fmt.Errorf("save model: %w", err)
		}
		zap.L().Info("model bundle saved", zap.String("path", config.ModelPath))
	}
	return result, nil
}

// Log converts the result into a training history entry.
func (r *TrainingResult) Log() db.TrainingLog {
	return db.TrainingLog{
		ModelName:  r.Predictor.ModelType(),
		MeanR2:     r.Evaluation.MeanR2(),
		MeanMAE:    r.Evaluation.MeanMAE(),
		Evaluation: r.Evaluation,
		TrainedAt:  r.TrainedAt,
		DataPoints: r.DataPoints,
	}
}

// Package app assembles the advisor, its storage and the HTTP server from a
// loaded configuration.
package app

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"cattlefeed/advisor"
	"cattlefeed/config"
	"cattlefeed/db"
	qhttp "cattlefeed/http"
	"cattlefeed/llm"
	"cattlefeed/pipeline"
)

type App struct {
	Config  *config.Config
	Store   *db.Store
	Advisor *advisor.Advisor
}

// New opens the history database and loads the model bundle if one exists.
// A missing bundle is not an error: Predict reports the model as not
// initialised until training runs.
func New(cfg *config.Config) (*App, error) {
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	cache, err := advisor.NewPredictionCache(cfg.Cache.Size)
	if err != nil {
		store.Close()
		return nil, err
	}
	completer, err := llm.New(cfg.LLM)
	if err != nil {
		store.Close()
		return nil, err
	}

	models := advisor.NewModelStore()
	adv := advisor.New(advisor.Options{
		Models:    models,
		Cache:     cache,
		Completer: completer,
		History:   store,
	})

	switch err := models.LoadFile(cfg.ML.ModelPath); {
	case err == nil:
		zap.L().Info("model bundle loaded",
			zap.String("path", cfg.ML.ModelPath),
			zap.String("model_type", models.Current().ModelType()))
	case errors.Is(err, os.ErrNotExist):
		zap.L().Warn("no model bundle found, train before predicting", zap.String("path", cfg.ML.ModelPath))
	default:
		store.Close()
		return nil, err
	}

	return &App{Config: cfg, Store: store, Advisor: adv}, nil
}

func (a *App) TrainingConfig() pipeline.TrainingConfig {
	return pipeline.TrainingConfig{
		DatasetPath: a.Config.ML.DatasetPath,
		ModelType:   a.Config.ML.ModelType,
		ModelPath:   a.Config.ML.ModelPath,
		Forest:      a.Config.ML.Forest,
		TestRatio:   a.Config.ML.TestRatio,
	}
}

// Train runs the training pipeline, swaps the result in and records it.
func (a *App) Train(ctx context.Context) (*pipeline.TrainingResult, error) {
	result, err := pipeline.Train(a.TrainingConfig())
	if err != nil {
		return nil, err
	}
	a.Advisor.Models().Swap(result.Predictor)
	if err := a.Store.SaveTrainingLog(ctx, result.Log()); err != nil {
		zap.L().Warn("failed to record training run", zap.Error(err))
	}
	return result, nil
}

// Serve runs the HTTP server, and the bundle watcher when enabled, until ctx
// is cancelled.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.NewAPI(a.Advisor, a.TrainingConfig(), a.Store))

	if cfg.ML.Watch {
		go func() {
			if err := a.Advisor.Models().Watch(ctx, cfg.ML.ModelPath); err != nil {
				zap.L().Error("model watcher stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return server.Stop()
}

func (a *App) Close() error {
	return a.Store.Close()
}

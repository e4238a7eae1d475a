package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cattlefeed/app"
	"cattlefeed/config"
	"cattlefeed/logger"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Install logger
	flush, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer flush()

	// 3. Open history database and load the model bundle
	application, err := app.New(cfg)
	if err != nil {
		zap.L().Fatal("failed to initialize", zap.Error(err))
	}
	defer application.Close()
	zap.L().Info("database initialized", zap.String("path", cfg.Database.Path))

	// 4. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := application.Serve(ctx); err != nil {
		zap.L().Error("server stopped with error", zap.Error(err))
	}
	zap.L().Info("exiting")
}

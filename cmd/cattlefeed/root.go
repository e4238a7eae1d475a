package main

import (
	"github.com/spf13/cobra"

	"cattlefeed/app"
	"cattlefeed/config"
	"cattlefeed/logger"
)

type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "cattlefeed",
		Short:         "Predict cattle nutrient requirements and request feed recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newTrainCmd(opts),
		newPredictCmd(opts),
		newRecommendCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// setup loads configuration, installs the logger and builds the app. The
// returned function releases everything.
func (o *options) setup() (*app.App, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	flush, err := logger.Init(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		flush()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		flush()
	}, nil
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"cattlefeed/llm"
	"cattlefeed/logger"
	"cattlefeed/ml"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log      logger.Config `yaml:"log"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	LLM   llm.Config `yaml:"llm"`
	ML    MLConfig   `yaml:"ml"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
}

type MLConfig struct {
	ModelType   string          `yaml:"model_type"`
	ModelPath   string          `yaml:"model_path"`
	DatasetPath string          `yaml:"dataset_path"`
	Forest      ml.ForestConfig `yaml:"forest"`
	TestRatio   float64         `yaml:"test_ratio"`
	Watch       bool            `yaml:"watch"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.ML.Forest = ml.DefaultForestConfig()
	cfg.ML.TestRatio = 0.2
	cfg.applyDefaults()
	return cfg
}

// Load reads path (if it exists) over the defaults and applies environment
// overrides. A .env file in the working directory is honoured. Keys present
// in the file win even when zero, so `ml.forest.seed: 0` and
// `ml.test_ratio: 0` (no hold-out scoring) are kept.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	if cfg.ML.TestRatio < 0 || cfg.ML.TestRatio >= 1 {
		return nil, fmt.Errorf("ml.test_ratio must be in [0, 1), got %v", cfg.ML.TestRatio)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// applyDefaults fills settings for which zero is never meaningful.
func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 8080
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 90 * time.Second
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/cattlefeed.db"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.ML.ModelType == "" {
		c.ML.ModelType = ml.ModelTypeRandomForest
	}
	if c.ML.ModelPath == "" {
		c.ML.ModelPath = "saved_models/nutrition_models.json"
	}
	if c.ML.DatasetPath == "" {
		c.ML.DatasetPath = "combined_growing.csv"
	}
	defaults := ml.DefaultForestConfig()
	if c.ML.Forest.NEstimators == 0 {
		c.ML.Forest.NEstimators = defaults.NEstimators
	}
	if c.ML.Forest.Tree.MinSamplesLeaf == 0 {
		c.ML.Forest.Tree.MinSamplesLeaf = defaults.Tree.MinSamplesLeaf
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 256
	}
}

func (c *Config) applyEnv() {
	if c.LLM.APIKey != "" {
		return
	}
	switch c.LLM.Provider {
	case "deepseek":
		c.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	default:
		c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
}

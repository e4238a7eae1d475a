package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cattlefeed/ml"
)

// Store keeps prediction, recommendation and training history in SQLite.
type Store struct {
	database *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		database.SetMaxOpenConns(1)
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        breed_class TEXT NOT NULL,
        target_weight REAL NOT NULL,
        body_weight REAL NOT NULL,
        adg REAL NOT NULL,
        record TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS recommendations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        excluded TEXT,
        prompt TEXT NOT NULL,
        response TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        mean_r2 REAL,
        mean_mae REAL,
        metrics TEXT,
        trained_at DATETIME,
        data_points INTEGER
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	if s == nil || s.database == nil {
		return nil
	}
	return s.database.Close()
}

type PredictionLog struct {
	BreedClass   string              `json:"breed_class"`
	TargetWeight float64             `json:"target_weight"`
	BodyWeight   float64             `json:"body_weight"`
	ADG          float64             `json:"adg"`
	Record       ml.PredictionRecord `json:"record"`
	CreatedAt    time.Time           `json:"created_at"`
}

type RecommendationLog struct {
	Excluded  []string  `json:"excluded"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type TrainingLog struct {
	ModelName  string        `json:"model_name"`
	MeanR2     float64       `json:"mean_r2"`
	MeanMAE    float64       `json:"mean_mae"`
	Evaluation ml.Evaluation `json:"evaluation"`
	TrainedAt  time.Time     `json:"trained_at"`
	DataPoints int           `json:"data_points"`
}

func (s *Store) SavePrediction(ctx context.Context, entry PredictionLog) error {
	payload, err := json.Marshal(entry.Record)
	if err != nil {
		return err
	}
	_, err = s.database.ExecContext(ctx, `
        INSERT INTO predictions (breed_class, target_weight, body_weight, adg, record, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.BreedClass, entry.TargetWeight, entry.BodyWeight, entry.ADG, string(payload), entry.CreatedAt)
	return err
}

func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.database.QueryContext(ctx, `
        SELECT breed_class, target_weight, body_weight, adg, record, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]PredictionLog, 0)
	for rows.Next() {
		var entry PredictionLog
		var record string
		if err := rows.Scan(&entry.BreedClass, &entry.TargetWeight, &entry.BodyWeight, &entry.ADG, &record, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(record), &entry.Record); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) SaveRecommendation(ctx context.Context, entry RecommendationLog) error {
	_, err := s.database.ExecContext(ctx, `
        INSERT INTO recommendations (excluded, prompt, response, created_at)
        VALUES (?, ?, ?, ?)`,
		strings.Join(entry.Excluded, "\n"), entry.Prompt, entry.Response, entry.CreatedAt)
	return err
}

func (s *Store) CountRecommendations(ctx context.Context) (int, error) {
	var n int
	err := s.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations`).Scan(&n)
	return n, err
}

func (s *Store) SaveTrainingLog(ctx context.Context, entry TrainingLog) error {
	metrics, err := json.Marshal(entry.Evaluation)
	if err != nil {
		return err
	}
	_, err = s.database.ExecContext(ctx, `
        INSERT INTO training_log (model_name, mean_r2, mean_mae, metrics, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ModelName, entry.MeanR2, entry.MeanMAE, string(metrics), entry.TrainedAt, entry.DataPoints)
	return err
}

func (s *Store) LoadTrainingLog(ctx context.Context) ([]TrainingLog, error) {
	rows, err := s.database.QueryContext(ctx, `
        SELECT model_name, mean_r2, mean_mae, metrics, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var entry TrainingLog
		var metrics sql.NullString
		if err := rows.Scan(&entry.ModelName, &entry.MeanR2, &entry.MeanMAE, &metrics, &entry.TrainedAt, &entry.DataPoints); err != nil {
			return nil, err
		}
		if metrics.Valid && metrics.String != "" {
			if err := json.Unmarshal([]byte(metrics.String), &entry.Evaluation); err != nil {
				return nil, err
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

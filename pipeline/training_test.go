package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cattlefeed/ml"
)

func writeTrainingCSV(t *testing.T, rows int) string {
	t.Helper()
	lines := []string{csvHeader}
	for i := 0; i < rows; i++ {
		body := 400 + float64(i)*15
		adg := 1.0 + float64(i%5)*0.5
		dmi := 0.02*body + 1.5*adg
		lines = append(lines, strings.Join([]string{
			fmt.Sprint(i % 3), fmt.Sprint(1200 + (i%3)*100), fmt.Sprint(body), fmt.Sprint(adg),
			fmt.Sprint(dmi), fmt.Sprint(60 + 4*adg), fmt.Sprint(0.6 + 0.05*adg), fmt.Sprint(0.35 + 0.04*adg),
			fmt.Sprint(14 - 0.008*body), "0.5", "0.25",
			fmt.Sprint(dmi * 0.65), fmt.Sprint(dmi * 0.7), fmt.Sprint(dmi * 0.4),
			fmt.Sprint(dmi * 0.12), "30", "15",
		}, ","))
	}
	path := filepath.Join(t.TempDir(), "combined_growing.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrain(t *testing.T) {
	dir := t.TempDir()
	config := TrainingConfig{
		DatasetPath: writeTrainingCSV(t, 40),
		ModelType:   ml.ModelTypeRandomForest,
		ModelPath:   filepath.Join(dir, "models", "bundle.json"),
		Forest:      ml.ForestConfig{NEstimators: 5, Seed: 42, Tree: ml.TreeConfig{MaxDepth: 6, MinSamplesLeaf: 1}},
		TestRatio:   0.25,
	}

	result, err := Train(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DataPoints != 40 {
		t.Fatalf("expected 40 data points, got %d", result.DataPoints)
	}
	if result.Evaluation.Rows != 10 {
		t.Fatalf("expected 10 test rows, got %d", result.Evaluation.Rows)
	}
	if len(result.Evaluation.Targets) != len(ml.NutrientTargets()) {
		t.Fatalf("expected metrics for every target, got %d", len(result.Evaluation.Targets))
	}

	loaded, err := ml.LoadNutritionPredictor(config.ModelPath)
	if err != nil {
		t.Fatalf("saved bundle did not load: %v", err)
	}
	want, _ := result.Predictor.Predict(1, 1400, 700, 2.5)
	got, _ := loaded.Predict(1, 1400, 700, 2.5)
	for _, target := range ml.NutrientTargets() {
		if want[target] != got[target] {
			t.Fatalf("%s: expected %f, got %f", target, want[target], got[target])
		}
	}

	entry := result.Log()
	if entry.ModelName != ml.ModelTypeRandomForest || entry.DataPoints != 40 {
		t.Fatalf("unexpected training log: %+v", entry)
	}
}

func TestTrainErrors(t *testing.T) {
	if _, err := Train(TrainingConfig{}); err == nil {
		t.Fatal("expected error for missing dataset path")
	}
	if _, err := Train(TrainingConfig{DatasetPath: filepath.Join(t.TempDir(), "absent.csv")}); err == nil {
		t.Fatal("expected error for absent dataset")
	}
	path := writeTrainingCSV(t, 10)
	if _, err := Train(TrainingConfig{DatasetPath: path, ModelType: "svm"}); err == nil {
		t.Fatal("expected error for unknown model type")
	}
}

// tailClassDataset puts every breed-2 row last with distinct targets, so a
// model fitted only on the head rows cannot predict them.
func tailClassDataset(rows, tail int) *ml.Dataset {
	columns := ml.FeatureNames()
	for _, target := range ml.NutrientTargets() {
		columns = append(columns, string(target))
	}
	data := make([][]float64, 0, rows)
	for i := 0; i < rows; i++ {
		breed, value := float64(i%2), 10.0
		if i >= rows-tail {
			breed, value = 2, 100
		}
		row := []float64{breed, 1300, 500 + float64(i%10)*20, 2}
		for range ml.NutrientTargets() {
			row = append(row, value)
		}
		data = append(data, row)
	}
	return &ml.Dataset{Columns: columns, Rows: data}
}

func TestTrainDatasetFitsEveryRow(t *testing.T) {
	tests := []struct {
		name      string
		testRatio float64
		wantRows  int
	}{
		{name: "with hold-out", testRatio: 0.2, wantRows: 10},
		{name: "without hold-out", testRatio: 0, wantRows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bundle.json")
			result, err := TrainDataset(tailClassDataset(50, 10), TrainingConfig{
				ModelType: ml.ModelTypeRegressionTree,
				ModelPath: path,
				TestRatio: tt.testRatio,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Evaluation.Rows != tt.wantRows {
				t.Fatalf("expected %d hold-out rows, got %d", tt.wantRows, result.Evaluation.Rows)
			}

			saved, err := ml.LoadNutritionPredictor(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			record, err := saved.Predict(2, 1300, 600, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := record[ml.DMIntake]; got < 99.999 || got > 100.001 {
				t.Fatalf("saved model did not learn the tail rows: got %f", got)
			}
		})
	}
}

func TestTrainDatasetSingleRow(t *testing.T) {
	result, err := TrainDataset(tailClassDataset(1, 0), TrainingConfig{ModelType: ml.ModelTypeRegressionTree})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Predictor.Ready() {
		t.Fatal("expected a ready predictor")
	}
}

package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func trainedPredictor(t *testing.T, modelType string) *NutritionPredictor {
	t.Helper()
	p, err := NewNutritionPredictor(modelType, fastForest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Train(syntheticDataset(60)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPredictBeforeTrain(t *testing.T) {
	p, err := NewNutritionPredictor(ModelTypeRandomForest, fastForest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Predict(1, 1000, 600, 2.5); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("expected ErrModelNotInitialized, got %v", err)
	}
	if err := p.Save(filepath.Join(t.TempDir(), "bundle.json")); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("expected ErrModelNotInitialized on save, got %v", err)
	}
}

func TestNewNutritionPredictorUnknownType(t *testing.T) {
	if _, err := NewNutritionPredictor("polynomial", fastForest()); err == nil {
		t.Fatal("expected error for unknown model type")
	}
}

func TestPredictReturnsAllTargets(t *testing.T) {
	p := trainedPredictor(t, ModelTypeRandomForest)
	record, err := p.Predict(1, 1000, 600, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(record) != 13 {
		t.Fatalf("expected 13 targets, got %d", len(record))
	}
	if err := record.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, target := range NutrientTargets() {
		value, err := record.Get(target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			t.Fatalf("%s is not finite: %f", target, value)
		}
	}

	again, err := p.Predict(1, 1000, 600, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for target, value := range record {
		if again[target] != value {
			t.Fatalf("%s not deterministic: %f vs %f", target, value, again[target])
		}
	}
}

func TestTrainMissingColumnKeepsState(t *testing.T) {
	p := trainedPredictor(t, ModelTypeRandomForest)
	before, err := p.Predict(0, 1200, 500, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broken := syntheticDataset(20)
	broken.Columns = append([]string(nil), broken.Columns...)
	broken.Columns[len(broken.Columns)-1] = "Phosphorus"
	if err := p.Train(broken); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}

	after, err := p.Predict(0, 1200, 500, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for target, value := range before {
		if after[target] != value {
			t.Fatalf("%s changed after failed train", target)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, modelType := range []string{ModelTypeRandomForest, ModelTypeRegressionTree} {
		t.Run(modelType, func(t *testing.T) {
			p := trainedPredictor(t, modelType)
			path := filepath.Join(t.TempDir(), "models", "bundle.json")
			if err := p.Save(path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			loaded, err := LoadNutritionPredictor(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if loaded.ModelType() != modelType {
				t.Fatalf("expected model type %s, got %s", modelType, loaded.ModelType())
			}

			for _, input := range []FeatureVector{
				{BreedClassCode: 1, TargetWeight: 1000, BodyWeight: 600, AverageDailyGain: 2.5},
				{BreedClassCode: 2, TargetWeight: 2000, BodyWeight: 1050, AverageDailyGain: 0.5},
			} {
				want, err := p.PredictVector(input)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got, err := loaded.PredictVector(input)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				for target, value := range want {
					if math.Abs(got[target]-value) > 1e-9 {
						t.Fatalf("%s: expected %f, got %f", target, value, got[target])
					}
				}
			}
		})
	}
}

func TestLoadIncompleteBundle(t *testing.T) {
	p := trainedPredictor(t, ModelTypeRegressionTree)
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var targets map[string]json.RawMessage
	if err := json.Unmarshal(raw["targets"], &targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delete(targets, string(PGrams))
	raw["targets"], _ = json.Marshal(targets)
	payload, _ = json.Marshal(raw)
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, payload, 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh := &NutritionPredictor{}
	if err := fresh.Load(broken); !errors.Is(err, ErrIncompleteBundle) {
		t.Fatalf("expected ErrIncompleteBundle, got %v", err)
	}
	if fresh.Ready() {
		t.Fatal("predictor should not be ready after failed load")
	}
	if _, err := fresh.Predict(1, 1000, 600, 2.5); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("expected ErrModelNotInitialized, got %v", err)
	}
}

func TestLoadRejectsMalformedModels(t *testing.T) {
	p := trainedPredictor(t, ModelTypeRandomForest)
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		model string
	}{
		{name: "null tree", model: `{"trees":[null]}`},
		{name: "empty tree", model: `{"trees":[{"nodes":[]}]}`},
		{name: "child out of range", model: `{"trees":[{"nodes":[{"feature_idx":0,"threshold":1,"left_child":1,"right_child":5,"is_leaf":false},{"value":1,"is_leaf":true}]}]}`},
		{name: "child points backwards", model: `{"trees":[{"nodes":[{"feature_idx":0,"threshold":1,"left_child":0,"right_child":1,"is_leaf":false},{"value":1,"is_leaf":true}]}]}`},
		{name: "feature out of range", model: `{"trees":[{"nodes":[{"feature_idx":4,"threshold":1,"left_child":1,"right_child":2,"is_leaf":false},{"value":1,"is_leaf":true},{"value":2,"is_leaf":true}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var bundle map[string]json.RawMessage
			if err := json.Unmarshal(payload, &bundle); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var targets map[string]map[string]json.RawMessage
			if err := json.Unmarshal(bundle["targets"], &targets); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			targets[string(PGrams)]["model"] = json.RawMessage(tt.model)
			bundle["targets"], _ = json.Marshal(targets)
			broken, _ := json.Marshal(bundle)
			brokenPath := filepath.Join(dir, "broken.json")
			if err := os.WriteFile(brokenPath, broken, 0o600); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			fresh := &NutritionPredictor{}
			if err := fresh.Load(brokenPath); !errors.Is(err, ErrIncompleteBundle) {
				t.Fatalf("expected ErrIncompleteBundle, got %v", err)
			}
			if fresh.Ready() {
				t.Fatal("predictor should not be ready after failed load")
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	data := syntheticDataset(80)
	train, test := data.Split(0.25)
	if train.Len() != 60 || test.Len() != 20 {
		t.Fatalf("unexpected split %d/%d", train.Len(), test.Len())
	}
	p, err := NewNutritionPredictor(ModelTypeRandomForest, fastForest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Train(train); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eval, err := Evaluate(p, test)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Rows != 20 || len(eval.Targets) != 13 {
		t.Fatalf("unexpected evaluation shape: %+v", eval)
	}
	if math.IsNaN(eval.MeanMAE()) || eval.MeanMAE() < 0 {
		t.Fatalf("unexpected mean MAE %f", eval.MeanMAE())
	}
}

func TestSplitWithoutHoldOut(t *testing.T) {
	data := syntheticDataset(10)
	train, test := data.Split(0)
	if train.Len() != 10 || test.Len() != 0 {
		t.Fatalf("unexpected split %d/%d", train.Len(), test.Len())
	}
}

func TestRecordGetMissing(t *testing.T) {
	record := PredictionRecord{DMIntake: 20}
	if _, err := record.Get(TDNPercent); !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}
	if err := record.Complete(); !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}
}

// Package advisor validates cattle inputs, predicts nutrient requirements
// and turns them into a diet-formulation request.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"cattlefeed/db"
	"cattlefeed/ml"
)

// Completer is the external text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// History persists requests for later review. Failures are logged only.
type History interface {
	SavePrediction(ctx context.Context, entry db.PredictionLog) error
	SaveRecommendation(ctx context.Context, entry db.RecommendationLog) error
}

type Options struct {
	Models    *ModelStore
	Cache     *PredictionCache
	Completer Completer
	History   History
}

type Advisor struct {
	models    *ModelStore
	cache     *PredictionCache
	completer Completer
	history   History
}

func New(opts Options) *Advisor {
	models := opts.Models
	if models == nil {
		models = NewModelStore()
	}
	a := &Advisor{
		models:    models,
		cache:     opts.Cache,
		completer: opts.Completer,
		history:   opts.History,
	}
	if a.cache != nil {
		models.onSwap = a.cache.Purge
	}
	return a
}

func (a *Advisor) Models() *ModelStore {
	return a.models
}

// Predict validates the input and returns the full requirement record.
func (a *Advisor) Predict(ctx context.Context, breedClass string, targetWeight, bodyWeight, adg float64) (ml.PredictionRecord, error) {
	if ok, reason := Validate(breedClass, targetWeight); !ok {
		return nil, &ValidationError{Reason: reason}
	}
	if !finite(bodyWeight) || !finite(adg) {
		return nil, &ValidationError{Reason: "Body weight and ADG must be finite numbers."}
	}
	rule, _ := Rule(BreedClass(breedClass))
	vector := ml.FeatureVector{
		BreedClassCode:   rule.Code,
		TargetWeight:     targetWeight,
		BodyWeight:       bodyWeight,
		AverageDailyGain: adg,
	}

	predictor, generation := a.models.snapshot()
	if predictor == nil {
		return nil, ml.ErrModelNotInitialized
	}
	if record, ok := a.cache.Get(generation, vector); ok {
		return record, nil
	}
	record, err := predictor.PredictVector(vector)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("prediction",
		zap.Int("breed_code", vector.BreedClassCode),
		zap.Float64("target_weight", vector.TargetWeight),
		zap.Float64("body_weight", vector.BodyWeight),
		zap.Float64("adg", vector.AverageDailyGain))
	a.cache.Add(generation, vector, record)

	if a.history != nil {
		entry := db.PredictionLog{
			BreedClass:   breedClass,
			TargetWeight: targetWeight,
			BodyWeight:   bodyWeight,
			ADG:          adg,
			Record:       record,
			CreatedAt:    time.Now().UTC(),
		}
		if err := a.history.SavePrediction(ctx, entry); err != nil {
			zap.L().Warn("failed to record prediction", zap.Error(err))
		}
	}
	return record, nil
}

// Recommend assembles the request and asks the completer for a feed menu.
// Any failure is returned as descriptive text rather than an error so that a
// session can continue with different exclusions.
func (a *Advisor) Recommend(ctx context.Context, record ml.PredictionRecord, excluded []string) string {
	prompt, err := Assemble(record, excluded)
	if err != nil {
		return failureText(err)
	}
	if a.completer == nil {
		return failureText(errors.New("text completion service not configured"))
	}

	start := time.Now()
	text, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("feed recommendation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return failureText(err)
	}
	zap.L().Info("feed recommendation generated",
		zap.Int("excluded", len(excluded)),
		zap.Duration("elapsed", time.Since(start)))

	if a.history != nil {
		entry := db.RecommendationLog{
			Excluded:  normaliseExclusions(excluded),
			Prompt:    prompt,
			Response:  text,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.history.SaveRecommendation(ctx, entry); err != nil {
			zap.L().Warn("failed to record recommendation", zap.Error(err))
		}
	}
	return text
}

// BreedInfo describes one valid class for listings.
type BreedInfo struct {
	Name            BreedClass `json:"name"`
	Code            int        `json:"code"`
	MaxTargetWeight float64    `json:"max_target_weight"`
}

func Breeds() []BreedInfo {
	classes := BreedClasses()
	out := make([]BreedInfo, 0, len(classes))
	for _, class := range classes {
		rule := validationRules[class]
		out = append(out, BreedInfo{Name: class, Code: rule.Code, MaxTargetWeight: rule.MaxTargetWeight})
	}
	return out
}

func failureText(err error) string {
	return fmt.Sprintf("Error generating feed recommendation: %v", err)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package ml

import (
	"errors"
	"fmt"
)

// NutrientTarget names one of the thirteen predicted daily requirements.
type NutrientTarget string

const (
	DMIntake   NutrientTarget = "DM Intake (lbs/day)"
	TDNPercent NutrientTarget = "TDN (% DM)"
	NEmPerLb   NutrientTarget = "NEm (Mcal/lb)"
	NEgPerLb   NutrientTarget = "NEg (Mcal/lb)"
	CPPercent  NutrientTarget = "CP (% DM)"
	CaPercent  NutrientTarget = "Ca (%DM)"
	PPercent   NutrientTarget = "P (% DM)"
	TDNLbs     NutrientTarget = "TDN (lbs)"
	NEmMcal    NutrientTarget = "NEm (Mcal)"
	NEgMcal    NutrientTarget = "NEg (Mcal)"
	CPLbs      NutrientTarget = "CP (lbs)"
	CaGrams    NutrientTarget = "Ca (grams)"
	PGrams     NutrientTarget = "P (grams)"
)

var targetOrder = [...]NutrientTarget{
	DMIntake,
	TDNPercent,
	NEmPerLb,
	NEgPerLb,
	CPPercent,
	CaPercent,
	PPercent,
	TDNLbs,
	NEmMcal,
	NEgMcal,
	CPLbs,
	CaGrams,
	PGrams,
}

// Feature column names, in the order the feature vector is built.
const (
	ColumnType         = "type"
	ColumnTargetWeight = "target_weight"
	ColumnBodyWeight   = "Body weight (lbs)"
	ColumnADG          = "ADG (lbs)"
)

var featureOrder = [...]string{ColumnType, ColumnTargetWeight, ColumnBodyWeight, ColumnADG}

// NutrientTargets returns the fixed target order used for training and inference.
func NutrientTargets() []NutrientTarget {
	out := make([]NutrientTarget, len(targetOrder))
	copy(out, targetOrder[:])
	return out
}

func FeatureNames() []string {
	out := make([]string, len(featureOrder))
	copy(out, featureOrder[:])
	return out
}

// FeatureVector is the model input. Field order is the column order.
type FeatureVector struct {
	BreedClassCode   int
	TargetWeight     float64
	BodyWeight       float64
	AverageDailyGain float64
}

func (f FeatureVector) Values() []float64 {
	return []float64{
		float64(f.BreedClassCode),
		f.TargetWeight,
		f.BodyWeight,
		f.AverageDailyGain,
	}
}

var ErrMissingTarget = errors.New("prediction record missing target")

// PredictionRecord holds one value per NutrientTarget.
type PredictionRecord map[NutrientTarget]float64

// Get returns the value for target, or ErrMissingTarget. There is no zero default.
func (r PredictionRecord) Get(target NutrientTarget) (float64, error) {
	v, ok := r[target]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingTarget, target)
	}
	return v, nil
}

// Complete reports the first missing target, if any.
func (r PredictionRecord) Complete() error {
	for _, target := range targetOrder {
		if _, ok := r[target]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingTarget, target)
		}
	}
	return nil
}

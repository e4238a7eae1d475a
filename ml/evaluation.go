package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

type TargetMetrics struct {
	R2  float64 `json:"r2"`
	MAE float64 `json:"mae"`
}

// Evaluation summarises hold-out accuracy for each target.
type Evaluation struct {
	Rows    int                              `json:"rows"`
	Targets map[NutrientTarget]TargetMetrics `json:"targets"`
}

// MeanR2 averages R² across targets in the fixed target order.
func (e Evaluation) MeanR2() float64 {
	if len(e.Targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, target := range targetOrder {
		sum += e.Targets[target].R2
	}
	return sum / float64(len(e.Targets))
}

func (e Evaluation) MeanMAE() float64 {
	if len(e.Targets) == 0 {
		return 0
	}
	sum := 0.0
	for _, target := range targetOrder {
		sum += e.Targets[target].MAE
	}
	return sum / float64(len(e.Targets))
}

func Evaluate(p *NutritionPredictor, test *Dataset) (Evaluation, error) {
	if test.Len() == 0 {
		return Evaluation{}, errors.New("test set is empty")
	}
	if err := test.RequireColumns(append(FeatureNames(), targetNames()...)...); err != nil {
		return Evaluation{}, err
	}
	features, err := test.Select(FeatureNames())
	if err != nil {
		return Evaluation{}, err
	}

	predicted := make(map[NutrientTarget][]float64, len(targetOrder))
	for _, row := range features {
		record, err := p.PredictVector(FeatureVector{
			BreedClassCode:   int(math.Round(row[0])),
			TargetWeight:     row[1],
			BodyWeight:       row[2],
			AverageDailyGain: row[3],
		})
		if err != nil {
			return Evaluation{}, err
		}
		for _, target := range targetOrder {
			predicted[target] = append(predicted[target], record[target])
		}
	}

	eval := Evaluation{Rows: test.Len(), Targets: make(map[NutrientTarget]TargetMetrics, len(targetOrder))}
	for _, target := range targetOrder {
		actual, err := test.Column(string(target))
		if err != nil {
			return Evaluation{}, err
		}
		estimates := predicted[target]
		mae := 0.0
		for i := range actual {
			mae += math.Abs(estimates[i] - actual[i])
		}
		mae /= float64(len(actual))
		r2 := 0.0
		if len(actual) > 1 {
			r2 = stat.RSquaredFrom(estimates, actual, nil)
		}
		// constant hold-out columns have no variance to explain
		if math.IsNaN(r2) || math.IsInf(r2, 0) {
			r2 = 0
		}
		eval.Targets[target] = TargetMetrics{R2: r2, MAE: mae}
	}
	return eval, nil
}

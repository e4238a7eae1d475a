package ml

import "math"

// syntheticDataset builds a smooth, fully populated training table.
func syntheticDataset(rows int) *Dataset {
	columns := append(FeatureNames(), targetNames()...)
	data := make([][]float64, 0, rows)
	for i := 0; i < rows; i++ {
		breed := float64(i % 3)
		target := 1200 + float64(i%4)*100
		body := 400 + float64(i)*12
		adg := 1.0 + float64(i%6)*0.4

		dmi := 0.02*body + 1.5*adg + breed
		tdnPct := 60 + 4*adg - 0.005*body
		nem := 0.6 + 0.05*adg
		neg := 0.35 + 0.04*adg
		cpPct := 14 - 0.008*body + 0.5*adg
		caPct := 0.6 - 0.0003*body + 0.02*adg
		pPct := 0.3 - 0.0001*body + 0.01*adg
		row := []float64{
			breed, target, body, adg,
			dmi, tdnPct, nem, neg, cpPct, caPct, pPct,
			dmi * tdnPct / 100,
			dmi * nem,
			dmi * neg,
			dmi * cpPct / 100,
			math.Round(dmi * caPct / 100 * 453.6),
			math.Round(dmi * pPct / 100 * 453.6),
		}
		data = append(data, row)
	}
	return &Dataset{Columns: columns, Rows: data}
}

func fastForest() ForestConfig {
	return ForestConfig{NEstimators: 8, Seed: 42, Tree: TreeConfig{MaxDepth: 8, MinSamplesLeaf: 1}}
}

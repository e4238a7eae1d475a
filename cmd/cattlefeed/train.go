package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cattlefeed/ml"
)

func newTrainCmd(opts *options) *cobra.Command {
	var dataset, modelType, output string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train all nutrient models from the growing-cattle CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := opts.setup()
			if err != nil {
				return err
			}
			defer release()

			if dataset != "" {
				a.Config.ML.DatasetPath = dataset
			}
			if modelType != "" {
				a.Config.ML.ModelType = modelType
			}
			if output != "" {
				a.Config.ML.ModelPath = output
			}

			result, err := a.Train(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained %s on %d rows, evaluated on %d\n",
				result.Predictor.ModelType(), result.DataPoints, result.Evaluation.Rows)
			for _, target := range ml.NutrientTargets() {
				metrics, ok := result.Evaluation.Targets[target]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%-22s R2=%.4f MAE=%.4f\n", target, metrics.R2, metrics.MAE)
			}
			fmt.Fprintf(out, "model saved to %s\n", a.Config.ML.ModelPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "training CSV (overrides ml.dataset_path)")
	cmd.Flags().StringVar(&modelType, "model-type", "", "random_forest or regression_tree")
	cmd.Flags().StringVar(&output, "output", "", "model bundle path (overrides ml.model_path)")
	return cmd
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cattlefeed/ml"
)

type cattleFlags struct {
	breed        string
	targetWeight float64
	bodyWeight   float64
	adg          float64
}

func (f *cattleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.breed, "breed", "", "growing_steer_heiver, growing_yearlings or growing_mature_bulls")
	cmd.Flags().Float64Var(&f.targetWeight, "target-weight", 0, "target weight (lbs)")
	cmd.Flags().Float64Var(&f.bodyWeight, "body-weight", 0, "current body weight (lbs)")
	cmd.Flags().Float64Var(&f.adg, "adg", 0, "average daily gain (lbs)")
	_ = cmd.MarkFlagRequired("breed")
	_ = cmd.MarkFlagRequired("target-weight")
	_ = cmd.MarkFlagRequired("body-weight")
	_ = cmd.MarkFlagRequired("adg")
}

func newPredictCmd(opts *options) *cobra.Command {
	flags := &cattleFlags{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the 13 daily nutrient requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := opts.setup()
			if err != nil {
				return err
			}
			defer release()

			record, err := a.Advisor.Predict(cmd.Context(), flags.breed, flags.targetWeight, flags.bodyWeight, flags.adg)
			if err != nil {
				return err
			}
			printRecord(cmd.OutOrStdout(), record)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRecommendCmd(opts *options) *cobra.Command {
	flags := &cattleFlags{}
	var exclude []string
	var interactive bool
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Predict requirements and ask for a feed recommendation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := opts.setup()
			if err != nil {
				return err
			}
			defer release()

			record, err := a.Advisor.Predict(cmd.Context(), flags.breed, flags.targetWeight, flags.bodyWeight, flags.adg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printRecord(out, record)
			fmt.Fprintln(out)
			fmt.Fprintln(out, a.Advisor.Recommend(cmd.Context(), record, exclude))
			if !interactive {
				return nil
			}

			// Each turn re-runs the recommendation against the same record.
			// Exclusions accumulate across turns.
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "\nMore ingredients to remove, added to those already removed (comma separated), or 'exit': ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if strings.EqualFold(line, "exit") {
					return nil
				}
				if line == "" {
					continue
				}
				for _, name := range strings.Split(line, ",") {
					if name = strings.TrimSpace(name); name != "" {
						exclude = append(exclude, name)
					}
				}
				fmt.Fprintf(out, "Excluded: %s\n", strings.Join(exclude, ", "))
				fmt.Fprintln(out, a.Advisor.Recommend(cmd.Context(), record, exclude))
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "ingredients to leave out, comma separated")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "keep removing ingredients, cumulatively, until 'exit'")
	return cmd
}

func printRecord(w io.Writer, record ml.PredictionRecord) {
	fmt.Fprintln(w, "Predicted nutrient requirements:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, target := range ml.NutrientTargets() {
		fmt.Fprintf(w, "%-22s %10.2f\n", target, record[target])
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"github.com/spf13/cobra"
)

func newTrainCmd(root *rootOptions) *cobra.Command {
	var (
		datasetPath string
		lambda      float64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the capacity model on a dataset and write its artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger()
			logger.Info("training capacity model", "dataset", datasetPath, "lambda", lambda)

			m, err := model.TrainAndSave(datasetPath, root.modelPath, root.featuresPath, lambda, time.Now())
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained on %d rows, R²=%.4f\n", m.Rows, m.RSquared)
			fmt.Fprintf(out, "features: %v\n", m.Features)
			fmt.Fprintf(out, "wrote %s and %s\n", root.modelPath, root.featuresPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "data/hydrogen_mock_1000.csv", "training dataset CSV")
	cmd.Flags().Float64Var(&lambda, "lambda", model.DefaultLambda, "ridge penalty")
	return cmd
}

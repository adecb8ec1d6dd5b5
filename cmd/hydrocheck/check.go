package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/hydrogen-audit-service/internal/adapter/pdftext"
	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"github.com/couchcryptid/hydrogen-audit-service/internal/observability"
	"github.com/couchcryptid/hydrogen-audit-service/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		outPath     string
		datasetPath string
		tolerance   float64
		trainIfMiss bool
	)

	cmd := &cobra.Command{
		Use:   "check <report.pdf>",
		Short: "Classify every record in a PDF report and write the results as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger()

			if trainIfMiss && !model.ArtifactsExist(root.modelPath, root.featuresPath) {
				logger.Warn("model artifacts missing, training first", "dataset", datasetPath)
				if _, err := model.TrainAndSave(datasetPath, root.modelPath, root.featuresPath, model.DefaultLambda, time.Now()); err != nil {
					return fmt.Errorf("train: %w", err)
				}
			}
			artifacts, err := model.LoadArtifacts(root.modelPath, root.featuresPath)
			if err != nil {
				return err
			}

			// The CLI serves no metrics endpoint, so an unregistered set is enough.
			p, err := pipeline.New(artifacts, pdftext.NewExtractor(), nil, tolerance, logger, observability.NewMetricsForTesting())
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			report, err := p.Audit(cmd.Context(), filepath.Base(path), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printResults(out, report.Results); err != nil {
				return err
			}
			if err := writeResultsFile(outPath, report.Results); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			fmt.Fprintf(out, "\n%d records, %d flagged. Results saved to %s\n", len(report.Results), report.Flagged(), outPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&outPath, "out", "pdf_check_results.csv", "results CSV path")
	f.StringVar(&datasetPath, "dataset", "data/hydrogen_mock_1000.csv", "dataset used when training on demand")
	f.Float64Var(&tolerance, "tolerance", domain.DefaultTolerance, "suspicious deviation tolerance")
	f.BoolVar(&trainIfMiss, "train-if-missing", false, "train the model first when artifacts are absent")
	return cmd
}

var resultHeader = []string{"Location", "Reported_Capacity", "Predicted_Capacity", "Status"}

func resultRow(r domain.ClassifiedResult) []string {
	reported, predicted := "", ""
	if r.ReportedCapacity != nil {
		reported = strconv.Itoa(*r.ReportedCapacity)
	}
	if r.PredictedCapacity != nil {
		predicted = strconv.FormatFloat(*r.PredictedCapacity, 'f', 2, 64)
	}
	return []string{r.Location, reported, predicted, r.Status.Description()}
}

func printResults(w io.Writer, results []domain.ClassifiedResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	row(resultHeader)
	for _, r := range results {
		row(resultRow(r))
	}
	return tw.Flush()
}

func writeResults(w io.Writer, results []domain.ClassifiedResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(resultRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeResultsFile(path string, results []domain.ClassifiedResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeResults(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

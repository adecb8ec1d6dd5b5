// Command validate backtests trained model artifacts against a dataset. It
// checks that the artifacts load and match the dataset layout, measures fit
// quality, runs every row through the classifier as if it had been reported
// in a document, and verifies that rendered report blocks parse back to the
// same values.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/hydrogen_mock_1000.csv \
//	  -model artifacts/capacity_model.json \
//	  -features artifacts/features.json
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
	"github.com/couchcryptid/hydrogen-audit-service/internal/model"
	"gonum.org/v1/gonum/stat"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReportedErrors caps per-row errors so a broken model does not flood the output.
const maxReportedErrors = 20

type options struct {
	datasetPath  string
	modelPath    string
	featuresPath string
	tolerance    float64
	minR2        float64
	maxFlagged   float64
}

func main() {
	var opts options
	flag.StringVar(&opts.datasetPath, "dataset", "data/hydrogen_mock_1000.csv", "training dataset CSV")
	flag.StringVar(&opts.modelPath, "model", "artifacts/capacity_model.json", "model artifact")
	flag.StringVar(&opts.featuresPath, "features", "artifacts/features.json", "feature list artifact")
	flag.Float64Var(&opts.tolerance, "tolerance", domain.DefaultTolerance, "suspicious deviation tolerance")
	flag.Float64Var(&opts.minR2, "min-r2", 0.8, "minimum acceptable R² on the dataset")
	flag.Float64Var(&opts.maxFlagged, "max-flagged", 0.1, "maximum share of in-range rows classified as anomalies")
	flag.Parse()

	os.Exit(run(opts))
}

func run(opts options) int {
	fmt.Println("=== Capacity Model Validation ===")
	fmt.Println()

	artifacts, err := model.LoadArtifacts(opts.modelPath, opts.featuresPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load artifacts: %v\n", err)
		return 1
	}
	ds, err := model.LoadDatasetFile(opts.datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}
	records, actual, err := loadRecords(opts.datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset records: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLayout(artifacts.Schema, ds),
		validateFit(artifacts, records, actual, opts.minR2),
		validateClassification(artifacts, records, opts.tolerance, opts.maxFlagged),
		validateExtraction(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d, features: %d\n", len(records), artifacts.Schema.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadRecords reads the dataset as the extractor would have seen it, with the
// target column as the reported capacity.
func loadRecords(path string) ([]domain.ExtractedRecord, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[h] = i
	}
	cell := func(row []string, col string) (string, bool) {
		i, ok := colIdx[col]
		if !ok || i >= len(row) || strings.TrimSpace(row[i]) == "" {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}
	floatCell := func(row []string, col string) *float64 {
		s, ok := cell(row, col)
		if !ok {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &v
	}
	intCell := func(row []string, col string) *int {
		v := floatCell(row, col)
		if v == nil {
			return nil
		}
		n := int(math.Round(*v))
		return &n
	}

	records := make([]domain.ExtractedRecord, 0, len(rows)-1)
	actual := make([]float64, 0, len(rows)-1)
	for line, row := range rows[1:] {
		target := floatCell(row, model.TargetColumn)
		if target == nil {
			return nil, nil, fmt.Errorf("line %d: missing %s", line+2, model.TargetColumn)
		}
		loc, ok := cell(row, model.LocationColumn)
		if !ok {
			loc = domain.UnknownLocation
		}
		records = append(records, domain.ExtractedRecord{
			SolarIrradiance:  floatCell(row, model.ColSolarIrradiance),
			Temperature:      floatCell(row, model.ColTemperature),
			WindSpeed:        floatCell(row, model.ColWindSpeed),
			CloudCover:       intCell(row, model.ColCloudCover),
			EnergyInput:      intCell(row, model.ColEnergyInput),
			ReportedCapacity: intCell(row, model.TargetColumn),
			Location:         loc,
		})
		actual = append(actual, *target)
	}
	return records, actual, nil
}

// validateLayout checks that the artifacts were trained on this dataset's columns.
func validateLayout(schema *model.Schema, ds *model.Dataset) *phase {
	p := &phase{name: "Artifact layout matches dataset"}
	names := schema.Names()
	if len(names) != len(ds.Features) {
		p.errorf("feature list has %d columns, dataset yields %d", len(names), len(ds.Features))
		return p
	}
	for i := range names {
		if names[i] != ds.Features[i] {
			p.errorf("column %d: artifact %q, dataset %q", i, names[i], ds.Features[i])
		}
	}
	return p
}

// validateFit scores every row and checks R² and mean absolute error.
func validateFit(artifacts *model.Artifacts, records []domain.ExtractedRecord, actual []float64, minR2 float64) *phase {
	p := &phase{name: "Model fit on dataset"}
	estimates := make([]float64, len(records))
	var absErr float64
	for i, rec := range records {
		v, err := artifacts.Model.Predict(artifacts.Schema.Align(rec))
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			return p
		}
		estimates[i] = v
		absErr += math.Abs(v - actual[i])
	}
	r2 := stat.RSquaredFrom(estimates, actual, nil)
	mae := absErr / float64(len(records))
	fmt.Printf("  fit: R²=%.4f MAE=%.2f kg/day\n", r2, mae)
	if r2 < minR2 {
		p.errorf("R² %.4f below minimum %.4f", r2, minR2)
	}
	return p
}

// validateClassification treats each dataset row as an honest report and
// checks that few in-range rows are flagged.
func validateClassification(artifacts *model.Artifacts, records []domain.ExtractedRecord, tolerance, maxFlagged float64) *phase {
	p := &phase{name: "Honest reports classify as normal"}
	counts := make(map[domain.Status]int)
	var inRange, flagged int
	for i, rec := range records {
		if domain.IrradianceOutOfRange(rec.SolarIrradiance) {
			counts[domain.StatusIrradianceOutOfRange]++
			continue
		}
		inRange++
		predicted, err := artifacts.Model.Predict(artifacts.Schema.Align(rec))
		if err != nil {
			p.errorf("row %d: %v", i+1, err)
			return p
		}
		status := domain.Classify(rec.SolarIrradiance, rec.ReportedCapacity, predicted, tolerance)
		counts[status]++
		if status == domain.StatusSuspicious || status == domain.StatusUnderproductionPossible {
			flagged++
		}
	}

	for _, s := range domain.Statuses {
		fmt.Printf("  %-26s %d\n", s, counts[s])
	}
	if inRange == 0 {
		p.errorf("no rows with irradiance in range")
		return p
	}
	if share := float64(flagged) / float64(inRange); share > maxFlagged {
		p.errorf("%.1f%% of in-range rows flagged, maximum %.1f%%", share*100, maxFlagged*100)
	}
	return p
}

// validateExtraction renders each row as a report block and parses it back.
func validateExtraction(records []domain.ExtractedRecord) *phase {
	p := &phase{name: "Report blocks round-trip through extractor"}
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(renderBlock(rec))
		b.WriteString("\n")
	}
	parsed := domain.ExtractRecords(b.String())
	if len(parsed) != len(records) {
		p.errorf("parsed %d records from %d blocks", len(parsed), len(records))
		return p
	}
	for i := range records {
		if len(p.errors) >= maxReportedErrors {
			p.errorf("further mismatches suppressed")
			break
		}
		want, got := records[i], parsed[i]
		if !equalFloat(want.SolarIrradiance, got.SolarIrradiance) ||
			!equalFloat(want.Temperature, got.Temperature) ||
			!equalFloat(want.WindSpeed, got.WindSpeed) ||
			!equalInt(want.CloudCover, got.CloudCover) ||
			!equalInt(want.EnergyInput, got.EnergyInput) ||
			!equalInt(want.ReportedCapacity, got.ReportedCapacity) ||
			want.Location != got.Location {
			p.errorf("row %d: rendered block parsed to different values", i+1)
		}
	}
	return p
}

func renderBlock(rec domain.ExtractedRecord) string {
	var b strings.Builder
	if rec.SolarIrradiance != nil {
		fmt.Fprintf(&b, "Solar Irradiance: %s\n", strconv.FormatFloat(*rec.SolarIrradiance, 'f', -1, 64))
	}
	if rec.Temperature != nil {
		fmt.Fprintf(&b, "Temperature: %s\n", strconv.FormatFloat(*rec.Temperature, 'f', -1, 64))
	}
	if rec.WindSpeed != nil {
		fmt.Fprintf(&b, "Wind Speed: %s\n", strconv.FormatFloat(*rec.WindSpeed, 'f', -1, 64))
	}
	if rec.CloudCover != nil {
		fmt.Fprintf(&b, "Cloud Cover: %d\n", *rec.CloudCover)
	}
	if rec.EnergyInput != nil {
		fmt.Fprintf(&b, "Energy Input: %d\n", *rec.EnergyInput)
	}
	if rec.ReportedCapacity != nil {
		fmt.Fprintf(&b, "Plant Capacity: %d\n", *rec.ReportedCapacity)
	}
	fmt.Fprintf(&b, "Location: %s\n", rec.Location)
	return b.String()
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

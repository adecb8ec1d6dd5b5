package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultLambda is the ridge penalty applied to every coefficient except the
// intercept. It keeps the normal equations solvable when one-hot columns are
// collinear with the numeric inputs.
const DefaultLambda = 1e-3

// ErrEmptyDataset is returned when the training CSV has no data rows.
var ErrEmptyDataset = errors.New("training dataset has no rows")

// Dataset is the encoded training matrix.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// LoadDatasetFile opens a CSV file and encodes it with LoadDataset.
func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadDataset(f)
}

// LoadDataset reads a CSV with a header row containing TargetColumn and
// LocationColumn. Remaining columns are numeric features kept in header
// order, followed by one indicator column per location value except the
// alphabetically first.
func LoadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyDataset
	}

	header := rows[0]
	targetIdx, locationIdx := -1, -1
	var numericIdx []int
	var features []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch h {
		case TargetColumn:
			targetIdx = i
		case LocationColumn:
			locationIdx = i
		default:
			if strings.HasPrefix(h, locationPrefix) {
				return nil, fmt.Errorf("dataset column %q uses the reserved %q prefix", h, locationPrefix)
			}
			numericIdx = append(numericIdx, i)
			features = append(features, h)
		}
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("dataset missing target column %q", TargetColumn)
	}
	if locationIdx < 0 {
		return nil, fmt.Errorf("dataset missing column %q", LocationColumn)
	}

	locations := uniqueLocations(rows[1:], locationIdx)
	dummies := make(map[string]int, len(locations))
	for i, loc := range locations[1:] {
		dummies[loc] = len(features) + i
	}
	for _, loc := range locations[1:] {
		features = append(features, locationPrefix+loc)
	}

	ds := &Dataset{
		Features: features,
		X:        make([][]float64, 0, len(rows)-1),
		Y:        make([]float64, 0, len(rows)-1),
	}
	for n, row := range rows[1:] {
		line := n + 2
		y, err := parseCell(row[targetIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d column %q: %w", line, TargetColumn, err)
		}
		x := make([]float64, len(features))
		for j, idx := range numericIdx {
			v, err := parseCell(row[idx])
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[idx], err)
			}
			x[j] = v
		}
		if j, ok := dummies[strings.TrimSpace(row[locationIdx])]; ok {
			x[j] = 1
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, y)
	}
	return ds, nil
}

func uniqueLocations(rows [][]string, idx int) []string {
	seen := make(map[string]struct{})
	var locs []string
	for _, row := range rows {
		loc := strings.TrimSpace(row[idx])
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

// Train fits a ridge regression on the dataset by solving the regularised
// normal equations (XᵀX + λI)β = Xᵀy with an unpenalised intercept.
func Train(ds *Dataset, lambda float64, now time.Time) (*LinearModel, error) {
	n := len(ds.X)
	if n == 0 {
		return nil, ErrEmptyDataset
	}
	if lambda < 0 {
		return nil, fmt.Errorf("lambda must be non-negative, got %g", lambda)
	}
	p := len(ds.Features)

	x := mat.NewDense(n, p+1, nil)
	for i, row := range ds.X {
		if len(row) != p {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), p)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), ds.Y...))

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j <= p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve normal equations: %w", err)
		}
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}
	m := &LinearModel{
		Features:     append([]string(nil), ds.Features...),
		Intercept:    beta.AtVec(0),
		Coefficients: coef,
		Lambda:       lambda,
		Rows:         n,
		TrainedAt:    now.UTC(),
	}

	estimates := make([]float64, n)
	for i, row := range ds.X {
		estimates[i] = m.Intercept + floats.Dot(coef, row)
	}
	m.RSquared = stat.RSquaredFrom(estimates, ds.Y, nil)
	return m, nil
}

// TrainAndSave fits a model on the CSV at datasetPath and writes both
// artifacts. It is the whole training job.
func TrainAndSave(datasetPath, modelPath, featuresPath string, lambda float64, now time.Time) (*LinearModel, error) {
	ds, err := LoadDatasetFile(datasetPath)
	if err != nil {
		return nil, err
	}
	m, err := Train(ds, lambda, now)
	if err != nil {
		return nil, err
	}
	if err := SaveArtifacts(m, modelPath, featuresPath); err != nil {
		return nil, err
	}
	return m, nil
}

package model

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrPredictorUnavailable is returned when the model artifact is missing
	// or corrupt. It is resolved by running the training job.
	ErrPredictorUnavailable = errors.New("capacity predictor unavailable")

	// ErrFeatureMismatch is returned when a vector does not have the width the
	// model was trained on.
	ErrFeatureMismatch = errors.New("feature vector does not match trained schema")
)

// Predictor estimates plant capacity in kg/day from an aligned feature vector.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// LinearModel is a ridge-regularised least squares fit. It is immutable once
// trained or loaded and safe for concurrent use.
type LinearModel struct {
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Lambda       float64   `json:"lambda"`
	Rows         int       `json:"rows"`
	RSquared     float64   `json:"r_squared"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Predict returns intercept + coefficients·features.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrFeatureMismatch, len(features), len(m.Coefficients))
	}
	return m.Intercept + floats.Dot(m.Coefficients, features), nil
}

// validate checks the model against the feature list it will be used with.
func (m *LinearModel) validate(schema *Schema) error {
	if len(m.Coefficients) == 0 {
		return fmt.Errorf("%w: model has no coefficients", ErrPredictorUnavailable)
	}
	if len(m.Coefficients) != schema.Len() {
		return fmt.Errorf("%w: model has %d coefficients, feature list has %d columns",
			ErrPredictorUnavailable, len(m.Coefficients), schema.Len())
	}
	if len(m.Features) == 0 {
		return nil
	}
	names := schema.Names()
	if len(m.Features) != len(names) {
		return fmt.Errorf("%w: model trained on %d features, feature list has %d",
			ErrPredictorUnavailable, len(m.Features), len(names))
	}
	for i := range names {
		if m.Features[i] != names[i] {
			return fmt.Errorf("%w: feature %d is %q in the model but %q in the feature list",
				ErrPredictorUnavailable, i, m.Features[i], names[i])
		}
	}
	return nil
}

package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/hydrogen-audit-service/internal/domain"
)

// Column names of the training dataset.
const (
	ColSolarIrradiance = "Solar_Irradiance_kWh_m2"
	ColTemperature     = "Temperature_C"
	ColWindSpeed       = "Wind_Speed_m_s"
	ColCloudCover      = "Cloud_Cover_pct"
	ColEnergyInput     = "Energy_Input_kW"

	// TargetColumn is the label the model learns. It is never a feature.
	TargetColumn = "Plant_Capacity_kg_day"

	// LocationColumn is one-hot encoded into LocationColumn + "_" + value
	// columns, dropping the alphabetically first value as the baseline.
	LocationColumn = "Location"
)

const locationPrefix = LocationColumn + "_"

// ErrFeatureListUnavailable is returned when the trained feature list is
// missing, unreadable or unusable. No record can be scored without it.
var ErrFeatureListUnavailable = errors.New("trained feature list unavailable")

// Schema is the ordered feature layout a model was trained on. It is built
// once at load time and is safe for concurrent use.
type Schema struct {
	names     []string
	numeric   map[string]int
	locations map[string]int
}

// NewSchema indexes the trained feature names. The order of names is the
// order of every vector produced by Align.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty feature list", ErrFeatureListUnavailable)
	}

	s := &Schema{
		names:     append([]string(nil), names...),
		numeric:   make(map[string]int),
		locations: make(map[string]int),
	}
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: empty column name at index %d", ErrFeatureListUnavailable, i)
		}
		if name == TargetColumn {
			return nil, fmt.Errorf("%w: target column %q listed as a feature", ErrFeatureListUnavailable, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrFeatureListUnavailable, name)
		}
		seen[name] = struct{}{}

		if loc, ok := strings.CutPrefix(name, locationPrefix); ok {
			s.locations[loc] = i
			continue
		}
		s.numeric[name] = i
	}
	return s, nil
}

// Names returns a copy of the ordered feature names.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Len is the width of every aligned vector.
func (s *Schema) Len() int { return len(s.names) }

// Locations returns the non-baseline location values known to the model, sorted.
func (s *Schema) Locations() []string {
	locs := make([]string, 0, len(s.locations))
	for loc := range s.locations {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

// Align builds the feature vector for a record. Absent fields and columns the
// record does not carry stay zero. A location without its own column leaves
// every indicator at zero, which is the baseline category. The reported
// capacity is never read.
func (s *Schema) Align(rec domain.ExtractedRecord) []float64 {
	vec := make([]float64, len(s.names))
	for _, f := range recordColumns(rec) {
		if f.value == nil {
			continue
		}
		if i, ok := s.numeric[f.column]; ok {
			vec[i] = *f.value
		}
	}
	if i, ok := s.locations[rec.Location]; ok {
		vec[i] = 1
	}
	return vec
}

type column struct {
	column string
	value  *float64
}

// recordColumns maps a record's numeric fields onto dataset column names.
func recordColumns(rec domain.ExtractedRecord) []column {
	return []column{
		{ColSolarIrradiance, rec.SolarIrradiance},
		{ColTemperature, rec.Temperature},
		{ColWindSpeed, rec.WindSpeed},
		{ColCloudCover, intToFloat(rec.CloudCover)},
		{ColEnergyInput, intToFloat(rec.EnergyInput)},
	}
}

func intToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

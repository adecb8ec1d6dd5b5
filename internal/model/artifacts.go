package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Artifacts is a loaded model paired with the feature layout it expects.
type Artifacts struct {
	Model  Predictor
	Schema *Schema
}

// ArtifactsExist reports whether both artifact files are present.
func ArtifactsExist(modelPath, featuresPath string) bool {
	for _, p := range []string{modelPath, featuresPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// LoadArtifacts reads the feature list and the model written by SaveArtifacts
// and checks that they agree.
func LoadArtifacts(modelPath, featuresPath string) (*Artifacts, error) {
	names, err := readFeatureList(featuresPath)
	if err != nil {
		return nil, err
	}
	schema, err := NewSchema(names)
	if err != nil {
		return nil, err
	}

	m, err := readModel(modelPath)
	if err != nil {
		return nil, err
	}
	if err := m.validate(schema); err != nil {
		return nil, err
	}

	return &Artifacts{Model: m, Schema: schema}, nil
}

// SaveArtifacts writes the model and its ordered feature list, creating
// parent directories as needed.
func SaveArtifacts(m *LinearModel, modelPath, featuresPath string) error {
	if err := writeJSON(featuresPath, m.Features); err != nil {
		return fmt.Errorf("write feature list: %w", err)
	}
	if err := writeJSON(modelPath, m); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

func readFeatureList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrFeatureListUnavailable, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrFeatureListUnavailable, err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFeatureListUnavailable, path, err)
	}
	return names, nil
}

func readModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrPredictorUnavailable, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPredictorUnavailable, path, err)
	}
	return &m, nil
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

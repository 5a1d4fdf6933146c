package regression

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/dispatchml/core/model"
)

// Artifact bundles a fitted regressor with its authoritative feature
// schema and evaluation metadata. Artifacts are immutable: retraining
// writes a whole new file, it never mutates an existing one.
type Artifact struct {
	ModelType       string       `json:"model_type"`
	Model           *LinearModel `json:"model"`
	Features        []string     `json:"features"`
	RandomSeed      int64        `json:"random_seed"`
	TrainingSamples int          `json:"training_samples"`
	TestSamples     int          `json:"test_samples"`
	MAE             float64      `json:"mae"`
	R2              float64      `json:"r2"`
}

// Validate rejects artifacts whose regressor and schema disagree. Such
// an artifact must fail to load instead of serving wrong scores.
func (a *Artifact) Validate() error {
	if a.Model == nil {
		return &model.SchemaMismatchError{Detail: "artifact carries no model"}
	}
	if len(a.Features) == 0 {
		return &model.SchemaMismatchError{Detail: "artifact carries no feature schema"}
	}
	if len(a.Model.Weights) != len(a.Features) {
		return &model.SchemaMismatchError{Detail: fmt.Sprintf(
			"%d weights for %d features", len(a.Model.Weights), len(a.Features))}
	}
	return nil
}

// WriteFile persists the artifact at path, creating the parent
// directory if needed. The write is a temp file followed by a rename so
// a concurrent reader never observes a partial artifact.
func (a *Artifact) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// ReadFile loads and validates an artifact from path.
func ReadFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

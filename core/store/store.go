// Package store holds the process-wide active model artifact and the
// batch scoring path that runs against it.
package store

import (
	"sync"

	"github.com/kilianp07/dispatchml/core/features"
	"github.com/kilianp07/dispatchml/core/logger"
	"github.com/kilianp07/dispatchml/core/model"
	"github.com/kilianp07/dispatchml/core/regression"
)

// Prediction details a single candidate's score for observability.
type Prediction struct {
	Index    int                `json:"index"`
	Score    float64            `json:"score"`
	Features map[string]float64 `json:"features"`
}

// Info is a point-in-time snapshot of the store state used by the
// health and introspection endpoints. Building it has no side effects.
type Info struct {
	Loaded    bool           `json:"loaded"`
	Features  []string       `json:"features,omitempty"`
	NFeatures int            `json:"n_features,omitempty"`
	ModelType string         `json:"model_type,omitempty"`
	ModelInfo map[string]any `json:"model_info,omitempty"`
	ModelPath string         `json:"model_path"`
	Error     string         `json:"error,omitempty"`
}

// Store is the single active holder of the model artifact. Replacement
// is one reference swap under the lock: concurrent readers see either
// the old or the new artifact in full, never a mix. Readers take a
// snapshot and then proceed without holding the lock.
type Store struct {
	path string
	log  logger.Logger

	mu      sync.RWMutex
	art     *regression.Artifact
	loadErr error
}

// New creates a store reading artifacts from path. No load is
// attempted; call Load explicitly.
func New(path string, log logger.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the configured artifact location.
func (s *Store) Path() string { return s.path }

// Load reads the artifact from disk. When already loaded and not
// forced it is a no-op returning true. On a missing or corrupt file the
// store moves to the load-failed state and Load returns false; it never
// returns an error. The new artifact is fully constructed and validated
// before it replaces the old one.
func (s *Store) Load(forceReload bool) bool {
	if !forceReload && s.IsLoaded() {
		return true
	}
	art, err := regression.ReadFile(s.path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.art, s.loadErr = nil, err
		s.log.Warnf("model load from %s failed: %v", s.path, err)
		return false
	}
	s.art, s.loadErr = art, nil
	s.log.Infof("model loaded from %s (%s, %d features, r2=%.3f)",
		s.path, art.ModelType, len(art.Features), art.R2)
	return true
}

// IsLoaded reports whether an artifact is currently active.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.art != nil
}

func (s *Store) snapshot() *regression.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.art
}

// Predict scores the candidates in batch against the active artifact.
// It returns the index of the best candidate (ranked on unrounded
// scores, ties to the lowest index), the raw scores in input order and
// a per-candidate detail. model.ErrModelUnavailable is returned when no
// artifact is loaded.
func (s *Store) Predict(candidates []model.Candidate) (int, []float64, []Prediction, error) {
	art := s.snapshot()
	if art == nil {
		return 0, nil, nil, model.ErrModelUnavailable
	}
	if len(candidates) == 0 {
		return 0, nil, nil, &model.ValidationError{Field: "candidates", Reason: "must contain at least one entry"}
	}

	scores := make([]float64, len(candidates))
	preds := make([]Prediction, len(candidates))
	best := 0
	for i, c := range candidates {
		vec, err := features.Encode(c, art.Features)
		if err != nil {
			return 0, nil, nil, err
		}
		score := art.Model.Predict(vec)
		scores[i] = score
		fmap := make(map[string]float64, len(art.Features))
		for j, name := range art.Features {
			fmap[name] = vec[j]
		}
		preds[i] = Prediction{Index: i, Score: score, Features: fmap}
		if score > scores[best] {
			best = i
		}
	}
	return best, scores, preds, nil
}

// Info reports the current state of the store.
func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{ModelPath: s.path}
	if s.art == nil {
		if s.loadErr != nil {
			info.Error = s.loadErr.Error()
		}
		return info
	}
	info.Loaded = true
	info.Features = s.art.Features
	info.NFeatures = len(s.art.Features)
	info.ModelType = s.art.ModelType
	info.ModelInfo = map[string]any{
		"random_seed":      s.art.RandomSeed,
		"training_samples": s.art.TrainingSamples,
		"test_samples":     s.art.TestSamples,
		"mae":              s.art.MAE,
		"r2":               s.art.R2,
	}
	return info
}

package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kilianp07/dispatchml/core/model"
	"github.com/kilianp07/dispatchml/core/regression"
	"github.com/kilianp07/dispatchml/infra/logger"
)

// writeArtifact persists a linear model whose score increases with
// past_perf and decreases with distance, which makes rankings easy to
// reason about in tests.
func writeArtifact(t *testing.T, path string, seed int64) {
	t.Helper()
	art := &regression.Artifact{
		ModelType: regression.ModelType,
		Model: &regression.LinearModel{
			Intercept: 50,
			Weights:   []float64{-0.01, 0, 1, 0.5, -0.5, 0},
		},
		Features:        model.FeatureColumns,
		RandomSeed:      seed,
		TrainingSamples: 2400,
		TestSamples:     600,
		MAE:             1.2,
		R2:              0.95,
	}
	if err := art.WriteFile(path); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	return New(path, logger.NopLogger{}), path
}

func TestStore_PredictBeforeLoad(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, _, err := s.Predict([]model.Candidate{{PastPerf: 5, FaultSeverity: 1}})
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	if s.Load(false) {
		t.Fatal("load of missing artifact reported success")
	}
	if s.IsLoaded() {
		t.Fatal("store claims loaded after failed load")
	}
	info := s.Info()
	if info.Loaded || info.Error == "" {
		t.Fatalf("expected load-failed info, got %+v", info)
	}
}

func TestStore_LoadIdempotent(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	if !s.Load(false) {
		t.Fatal("initial load failed")
	}
	// Corrupt the file; a non-forced load must not reread it.
	writeCorrupt(t, path)
	if !s.Load(false) {
		t.Fatal("load when already loaded must be a no-op returning true")
	}
	if !s.IsLoaded() {
		t.Fatal("store lost its artifact")
	}
}

func TestStore_ForcedReloadSwapsArtifact(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	if !s.Load(false) {
		t.Fatal("initial load failed")
	}
	writeArtifact(t, path, 7)
	if !s.Load(true) {
		t.Fatal("forced reload failed")
	}
	info := s.Info()
	if info.ModelInfo["random_seed"].(int64) != 7 {
		t.Fatalf("expected reloaded artifact, got %+v", info.ModelInfo)
	}
}

func TestStore_PredictRanking(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	if !s.Load(false) {
		t.Fatal("load failed")
	}
	candidates := []model.Candidate{
		{DistanceM: 3500, DistanceCat: 1, PastPerf: 6.5, FaultHistory: 0, FatigueH: 8, FaultSeverity: 3},
		{DistanceM: 1250.5, DistanceCat: 1, PastPerf: 8.2, FaultHistory: 2, FatigueH: 4, FaultSeverity: 3},
		{DistanceM: 9000, DistanceCat: 2, PastPerf: 2, FaultHistory: 0, FatigueH: 20, FaultSeverity: 1},
	}
	best, scores, preds, err := s.Predict(candidates)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(scores) != len(candidates) || len(preds) != len(candidates) {
		t.Fatalf("result lengths %d/%d, want %d", len(scores), len(preds), len(candidates))
	}
	if best != 1 {
		t.Fatalf("expected candidate 1 to win, got %d (scores %v)", best, scores)
	}
	for i, sc := range scores {
		if scores[best] < sc {
			t.Fatalf("best score %v below candidate %d score %v", scores[best], i, sc)
		}
		if preds[i].Index != i || preds[i].Score != sc {
			t.Fatalf("detail %d inconsistent: %+v", i, preds[i])
		}
		if preds[i].Features["distance_m"] != candidates[i].DistanceM {
			t.Fatalf("detail %d feature map wrong: %+v", i, preds[i].Features)
		}
	}
}

func TestStore_PredictTieGoesToLowestIndex(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	if !s.Load(false) {
		t.Fatal("load failed")
	}
	same := model.Candidate{DistanceM: 1000, DistanceCat: 1, PastPerf: 7, FaultHistory: 1, FatigueH: 4, FaultSeverity: 2}
	best, _, _, err := s.Predict([]model.Candidate{same, same, same})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if best != 0 {
		t.Fatalf("tie must go to the lowest index, got %d", best)
	}
}

func TestStore_PredictEmpty(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	s.Load(false)
	_, _, _, err := s.Predict(nil)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestStore_Info(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	s.Load(false)
	info := s.Info()
	if !info.Loaded || info.NFeatures != len(model.FeatureColumns) {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.ModelType != regression.ModelType || info.ModelPath != path {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Error != "" {
		t.Fatalf("loaded store must not report an error: %+v", info)
	}
}

func TestStore_ConcurrentPredictDuringReload(t *testing.T) {
	s, path := newTestStore(t)
	writeArtifact(t, path, 42)
	if !s.Load(false) {
		t.Fatal("load failed")
	}
	c := model.Candidate{DistanceM: 500, DistanceCat: 0, PastPerf: 7, FaultHistory: 1, FatigueH: 2, FaultSeverity: 2}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				best, scores, preds, err := s.Predict([]model.Candidate{c})
				if err != nil {
					t.Errorf("predict: %v", err)
					return
				}
				// A snapshot is internally consistent even while the
				// artifact is being swapped underneath.
				if best != 0 || len(scores) != 1 || len(preds[0].Features) != len(model.FeatureColumns) {
					t.Errorf("inconsistent result: best=%d scores=%v", best, scores)
					return
				}
			}
		}()
	}
	for k := 0; k < 20; k++ {
		writeArtifact(t, path, int64(k))
		if !s.Load(true) {
			t.Fatal("reload failed")
		}
	}
	wg.Wait()
}

func writeCorrupt(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
}

package training

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dispatchml/core/logger"
	"github.com/kilianp07/dispatchml/core/metrics"
	"github.com/kilianp07/dispatchml/core/model"
	"github.com/kilianp07/dispatchml/core/regression"
	"github.com/kilianp07/dispatchml/core/store"
	"github.com/kilianp07/dispatchml/internal/eventbus"
)

// Result reports the outcome of a training run. Failures are carried
// as data, not as Go errors, so callers can tell a failed run apart
// from a rejected one.
type Result struct {
	RunID      string   `json:"run_id"`
	Success    bool     `json:"success"`
	MAE        float64  `json:"mae,omitempty"`
	R2         float64  `json:"r2,omitempty"`
	ModelPath  string   `json:"model_path,omitempty"`
	Features   []string `json:"features,omitempty"`
	NSamples   int      `json:"n_samples,omitempty"`
	RandomSeed int64    `json:"random_seed,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ModelUpdated is published on the event bus after a successful run has
// been written to disk and reloaded into the store.
type ModelUpdated struct {
	RunID     string
	ModelPath string
	MAE       float64
	R2        float64
	Timestamp time.Time
}

// ModelTrainer produces a persisted artifact for the given parameters.
// *Trainer is the production implementation.
type ModelTrainer interface {
	Train(nSamples int, seed int64) (*regression.Artifact, error)
}

// Orchestrator serialises training runs and feeds fresh artifacts back
// into the model store. At most one run is active per process; a second
// concurrent request is rejected with model.ErrAlreadyTraining rather
// than queued.
type Orchestrator struct {
	trainer ModelTrainer
	store   *store.Store
	bus     eventbus.EventBus
	sink    metrics.Sink
	log     logger.Logger

	mu         sync.Mutex
	inProgress bool
}

// NewOrchestrator wires a trainer to the store. bus and sink may be nil.
func NewOrchestrator(trainer ModelTrainer, st *store.Store, bus eventbus.EventBus, sink metrics.Sink, log logger.Logger) *Orchestrator {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{trainer: trainer, store: st, bus: bus, sink: sink, log: log}
}

// InProgress reports whether a training run is currently active.
func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inProgress
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inProgress {
		return false
	}
	o.inProgress = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.inProgress = false
	o.mu.Unlock()
}

// Train runs a training session to completion. Scoring requests keep
// serving the old model while the run is active; on success the store
// is force-reloaded so the new artifact replaces the old one in a
// single swap. On failure the previous model is left untouched and the
// failure is reported in the Result.
func (o *Orchestrator) Train(nSamples int, seed int64) (Result, error) {
	if !o.begin() {
		return Result{}, model.ErrAlreadyTraining
	}
	defer o.end()

	runID := uuid.NewString()
	start := time.Now()
	o.log.Infof("training run %s started: n_samples=%d seed=%d", runID, nSamples, seed)

	art, err := o.trainer.Train(nSamples, seed)
	if err != nil {
		o.log.Errorf("training run %s failed: %v", runID, err)
		o.sink.RecordTraining(metrics.TrainingEvent{
			RunID: runID, Success: false, Samples: nSamples, Duration: time.Since(start),
		})
		return Result{RunID: runID, Success: false, Error: err.Error()}, nil
	}

	if !o.store.Load(true) {
		o.log.Errorf("training run %s: reload of fresh artifact failed", runID)
	}
	o.sink.RecordModelLoaded(o.store.IsLoaded())
	o.sink.RecordTraining(metrics.TrainingEvent{
		RunID: runID, Success: true, MAE: art.MAE, R2: art.R2,
		Samples: nSamples, Duration: time.Since(start),
	})
	if o.bus != nil {
		o.bus.Publish(ModelUpdated{
			RunID:     runID,
			ModelPath: o.store.Path(),
			MAE:       art.MAE,
			R2:        art.R2,
			Timestamp: time.Now().UTC(),
		})
	}
	o.log.Infof("training run %s completed: mae=%.3f r2=%.3f", runID, art.MAE, art.R2)

	return Result{
		RunID:      runID,
		Success:    true,
		MAE:        art.MAE,
		R2:         art.R2,
		ModelPath:  o.store.Path(),
		Features:   art.Features,
		NSamples:   nSamples,
		RandomSeed: seed,
	}, nil
}

// Package dispatch exposes the scoring and training HTTP API.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/kilianp07/dispatchml/config"
	"github.com/kilianp07/dispatchml/core/logger"
	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
	"github.com/kilianp07/dispatchml/core/model"
	"github.com/kilianp07/dispatchml/core/store"
	"github.com/kilianp07/dispatchml/core/training"
)

// ServiceName and ServiceVersion identify the service on the root endpoint.
const (
	ServiceName    = "ML Dispatch Service"
	ServiceVersion = "1.0.0"
)

// Bounds on the requested training sample count.
const (
	MinSamples = 100
	MaxSamples = 100000
)

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	Candidates []model.Candidate `json:"candidates"`
}

// PredictResponse returns the ranking decision and all scores. Scores
// are rounded to two decimals for display; the ranking itself is made
// on unrounded values before the response is built.
type PredictResponse struct {
	BestIndex   int                `json:"best_index"`
	Scores      []float64          `json:"scores"`
	Predictions []store.Prediction `json:"predictions"`
}

// TrainRequest is the body of POST /api/train. Omitted fields fall back
// to the configured defaults.
type TrainRequest struct {
	NSamples   *int   `json:"n_samples"`
	RandomSeed *int64 `json:"random_seed"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	ModelFeatures int    `json:"model_features,omitempty"`
	Error         string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the dispatch scoring API.
type Handler struct {
	store *store.Store
	orch  *training.Orchestrator
	cfg   config.TrainingConfig
	sink  coremetrics.Sink
	log   logger.Logger
}

// New creates a Handler. sink may be nil.
func New(st *store.Store, orch *training.Orchestrator, cfg config.TrainingConfig, sink coremetrics.Sink, log logger.Logger) *Handler {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Handler{store: st, orch: orch, cfg: cfg, sink: sink, log: log}
}

// Routes registers the API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/api/health", h.handleHealth)
	mux.HandleFunc("/api/model/info", h.handleModelInfo)
	mux.HandleFunc("/api/predict", h.handlePredict)
	mux.HandleFunc("/api/train", h.handleTrain)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": ServiceName,
		"version": ServiceVersion,
		"status":  "running",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info := h.store.Info()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		ModelLoaded:   info.Loaded,
		ModelFeatures: info.NFeatures,
		Error:         info.Error,
	})
}

func (h *Handler) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.store.Info())
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "candidates must contain at least one entry")
		return
	}
	for i, c := range req.Candidates {
		if err := c.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("candidate %d: %v", i, err))
			return
		}
	}

	start := time.Now()
	best, scores, preds, err := h.store.Predict(req.Candidates)
	if err != nil {
		var schemaErr *model.SchemaMismatchError
		switch {
		case errors.Is(err, model.ErrModelUnavailable):
			writeError(w, http.StatusServiceUnavailable, "model not available, train a model first")
		case errors.As(err, &schemaErr):
			h.log.Errorf("prediction failed: %v", err)
			writeError(w, http.StatusInternalServerError, "model artifact is incompatible")
		default:
			h.log.Errorf("prediction failed: %v", err)
			writeError(w, http.StatusInternalServerError, "prediction failed")
		}
		return
	}
	h.sink.RecordPrediction(coremetrics.PredictionEvent{
		Candidates: len(req.Candidates),
		BestScore:  scores[best],
		Latency:    time.Since(start),
	})

	rounded := make([]float64, len(scores))
	for i, s := range scores {
		rounded[i] = round2(s)
	}
	for i := range preds {
		preds[i].Score = round2(preds[i].Score)
	}
	writeJSON(w, http.StatusOK, PredictResponse{
		BestIndex:   best,
		Scores:      rounded,
		Predictions: preds,
	})
}

func (h *Handler) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req := TrainRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	nSamples := h.cfg.DefaultSamples
	if req.NSamples != nil {
		nSamples = *req.NSamples
	}
	if nSamples < MinSamples || nSamples > MaxSamples {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("n_samples must be between %d and %d", MinSamples, MaxSamples))
		return
	}
	seed := h.cfg.DefaultSeed
	if req.RandomSeed != nil {
		seed = *req.RandomSeed
	}

	res, err := h.orch.Train(nSamples, seed)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyTraining) {
			writeError(w, http.StatusConflict, "training already in progress")
			return
		}
		h.log.Errorf("training failed: %v", err)
		writeError(w, http.StatusInternalServerError, "training failed")
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

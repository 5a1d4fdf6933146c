package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
)

// PromSink records scoring and training telemetry in Prometheus metrics.
type PromSink struct {
	predictions prometheus.Counter
	candidates  prometheus.Counter
	latency     prometheus.Histogram
	trainings   *prometheus.CounterVec
	trainTime   prometheus.Histogram
	modelLoaded prometheus.Gauge
}

// NewPromSink registers scoring metrics on the default Prometheus
// registerer. The metrics server is started separately with
// StartPromServer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_predictions_total",
		Help: "Total number of scoring requests served",
	})
	candidates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_candidates_scored_total",
		Help: "Total number of candidates scored",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_prediction_latency_seconds",
		Help:    "Time spent scoring a batch of candidates",
		Buckets: prometheus.DefBuckets,
	})
	trainings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_training_runs_total",
		Help: "Total number of training runs",
	}, []string{"success"})
	trainTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_training_duration_seconds",
		Help:    "Duration of a full training run",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	modelLoaded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_model_loaded",
		Help: "Whether a model artifact is currently loaded (1) or not (0)",
	})

	s := &PromSink{
		predictions: predictions,
		candidates:  candidates,
		latency:     latency,
		trainings:   trainings,
		trainTime:   trainTime,
		modelLoaded: modelLoaded,
	}

	if err := register(reg, predictions, func(c prometheus.Collector) { s.predictions = c.(prometheus.Counter) }); err != nil {
		return nil, err
	}
	if err := register(reg, candidates, func(c prometheus.Collector) { s.candidates = c.(prometheus.Counter) }); err != nil {
		return nil, err
	}
	if err := register(reg, latency, func(c prometheus.Collector) { s.latency = c.(prometheus.Histogram) }); err != nil {
		return nil, err
	}
	if err := register(reg, trainings, func(c prometheus.Collector) { s.trainings = c.(*prometheus.CounterVec) }); err != nil {
		return nil, err
	}
	if err := register(reg, trainTime, func(c prometheus.Collector) { s.trainTime = c.(prometheus.Histogram) }); err != nil {
		return nil, err
	}
	if err := register(reg, modelLoaded, func(c prometheus.Collector) { s.modelLoaded = c.(prometheus.Gauge) }); err != nil {
		return nil, err
	}
	return s, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, replace func(prometheus.Collector)) error {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return nil
		}
		return err
	}
	return nil
}

// RecordPrediction counts a served scoring request.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) {
	s.predictions.Inc()
	s.candidates.Add(float64(ev.Candidates))
	s.latency.Observe(ev.Latency.Seconds())
}

// RecordTraining counts a completed training run.
func (s *PromSink) RecordTraining(ev coremetrics.TrainingEvent) {
	s.trainings.WithLabelValues(strconv.FormatBool(ev.Success)).Inc()
	s.trainTime.Observe(ev.Duration.Seconds())
}

// RecordModelLoaded sets the model-loaded gauge.
func (s *PromSink) RecordModelLoaded(loaded bool) {
	if loaded {
		s.modelLoaded.Set(1)
		return
	}
	s.modelLoaded.Set(0)
}

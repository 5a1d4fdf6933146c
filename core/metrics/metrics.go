// Package metrics declares the telemetry surface the scoring and
// training paths report into. Concrete sinks live under infra/metrics.
package metrics

import "time"

// Config holds metric sink settings.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}

// PredictionEvent captures one scoring request.
type PredictionEvent struct {
	Candidates int
	BestScore  float64
	Latency    time.Duration
}

// TrainingEvent captures one completed training run.
type TrainingEvent struct {
	RunID    string
	Success  bool
	MAE      float64
	R2       float64
	Samples  int
	Duration time.Duration
}

// Sink records scoring and training telemetry.
type Sink interface {
	RecordPrediction(ev PredictionEvent)
	RecordTraining(ev TrainingEvent)
	RecordModelLoaded(loaded bool)
}

// NopSink discards all telemetry.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) {}
func (NopSink) RecordTraining(TrainingEvent)     {}
func (NopSink) RecordModelLoaded(bool)           {}

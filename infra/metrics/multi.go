package metrics

import coremetrics "github.com/kilianp07/dispatchml/core/metrics"

// MultiSink fans telemetry out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to all sinks.
func (m *MultiSink) RecordPrediction(ev coremetrics.PredictionEvent) {
	for _, s := range m.Sinks {
		s.RecordPrediction(ev)
	}
}

// RecordTraining forwards the event to all sinks.
func (m *MultiSink) RecordTraining(ev coremetrics.TrainingEvent) {
	for _, s := range m.Sinks {
		s.RecordTraining(ev)
	}
}

// RecordModelLoaded forwards the state to all sinks.
func (m *MultiSink) RecordModelLoaded(loaded bool) {
	for _, s := range m.Sinks {
		s.RecordModelLoaded(loaded)
	}
}

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
)

func TestPromSink_RecordPrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}

	sink.RecordPrediction(coremetrics.PredictionEvent{
		Candidates: 3,
		BestScore:  87.5,
		Latency:    2 * time.Millisecond,
	})
	sink.RecordPrediction(coremetrics.PredictionEvent{
		Candidates: 1,
		BestScore:  40,
		Latency:    time.Millisecond,
	})

	expected := `
# HELP dispatch_predictions_total Total number of scoring requests served
# TYPE dispatch_predictions_total counter
dispatch_predictions_total 2
`
	if err := testutil.CollectAndCompare(sink.predictions, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	expectedCandidates := `
# HELP dispatch_candidates_scored_total Total number of candidates scored
# TYPE dispatch_candidates_scored_total counter
dispatch_candidates_scored_total 4
`
	if err := testutil.CollectAndCompare(sink.candidates, strings.NewReader(expectedCandidates)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	if c := testutil.CollectAndCount(sink.latency); c == 0 {
		t.Errorf("latency not recorded")
	}
}

func TestPromSink_RecordTraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	sink.RecordTraining(coremetrics.TrainingEvent{RunID: "a", Success: true, Duration: time.Second})
	sink.RecordTraining(coremetrics.TrainingEvent{RunID: "b", Success: false, Duration: time.Second})
	sink.RecordTraining(coremetrics.TrainingEvent{RunID: "c", Success: true, Duration: time.Second})

	expected := `
# HELP dispatch_training_runs_total Total number of training runs
# TYPE dispatch_training_runs_total counter
dispatch_training_runs_total{success="false"} 1
dispatch_training_runs_total{success="true"} 2
`
	if err := testutil.CollectAndCompare(sink.trainings, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestPromSink_RecordModelLoaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	sink.RecordModelLoaded(true)
	if v := testutil.ToFloat64(sink.modelLoaded); v != 1 {
		t.Fatalf("gauge %v, want 1", v)
	}
	sink.RecordModelLoaded(false)
	if v := testutil.ToFloat64(sink.modelLoaded); v != 0 {
		t.Fatalf("gauge %v, want 0", v)
	}
}

func TestPromSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	// A second sink on the same registry reuses the existing collectors.
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	sink := sinkIf.(*PromSink)
	sink.RecordPrediction(coremetrics.PredictionEvent{Candidates: 1})
	if v := testutil.ToFloat64(sink.predictions); v != 1 {
		t.Fatalf("counter %v, want 1", v)
	}
}

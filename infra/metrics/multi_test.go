package metrics

import (
	"testing"

	coremetrics "github.com/kilianp07/dispatchml/core/metrics"
)

type recordSink struct {
	predictions int
	trainings   int
	loaded      int
}

func (r *recordSink) RecordPrediction(coremetrics.PredictionEvent) { r.predictions++ }
func (r *recordSink) RecordTraining(coremetrics.TrainingEvent)     { r.trainings++ }
func (r *recordSink) RecordModelLoaded(bool)                       { r.loaded++ }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	m.RecordPrediction(coremetrics.PredictionEvent{Candidates: 1})
	m.RecordTraining(coremetrics.TrainingEvent{Success: true})
	m.RecordModelLoaded(true)
	if s1.predictions != 1 || s1.trainings != 1 || s1.loaded != 1 {
		t.Fatalf("events not forwarded to first sink: %+v", s1)
	}
	if s2.predictions != 1 || s2.trainings != 1 || s2.loaded != 1 {
		t.Fatalf("events not forwarded to second sink: %+v", s2)
	}
}

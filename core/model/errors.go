package model

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when scoring is requested while no
// model artifact is loaded.
var ErrModelUnavailable = errors.New("no model loaded")

// ErrAlreadyTraining is returned when a training run is requested while
// another one is in progress. The second run is rejected, not queued.
var ErrAlreadyTraining = errors.New("training already in progress")

// ValidationError reports a candidate field outside its documented
// bounds. It is the client's fault and maps to a bad-request response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SchemaMismatchError reports a disagreement between an artifact's
// feature schema and the data it is applied to. The artifact cannot be
// served; loading it must fail rather than produce wrong scores.
type SchemaMismatchError struct {
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return "feature schema mismatch: " + e.Detail
}

// TrainingError wraps a failure during data generation, fitting or
// artifact persistence. It is surfaced as a structured failure result;
// the previously loaded model keeps serving.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed during %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

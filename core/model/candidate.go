package model

// Candidate describes a vehicle/crew eligible for dispatch to a fault.
// Candidates are built per request and never persisted.
type Candidate struct {
	// DistanceM is the distance to the fault in meters.
	DistanceM float64 `json:"distance_m"`
	// DistanceCat is the bucketed distance category (0, 1 or 2).
	DistanceCat int `json:"distance_cat"`
	// PastPerf is the crew's past performance score (1-10).
	PastPerf float64 `json:"past_perf"`
	// FaultHistory counts similar faults handled before.
	FaultHistory int `json:"fault_history"`
	// FatigueH is the crew fatigue in hours (0-24).
	FatigueH float64 `json:"fatigue_h"`
	// FaultSeverity is the fault severity (1=low, 2=medium, 3=high).
	FaultSeverity int `json:"fault_severity"`
}

// FeatureColumns is the canonical feature order consumed by the
// regressor. Artifacts record this schema; encoding must follow it
// exactly.
var FeatureColumns = []string{
	"distance_m",
	"distance_cat",
	"past_perf",
	"fault_history",
	"fatigue_h",
	"fault_severity",
}

// Fields returns the candidate values keyed by feature column name.
func (c Candidate) Fields() map[string]float64 {
	return map[string]float64{
		"distance_m":     c.DistanceM,
		"distance_cat":   float64(c.DistanceCat),
		"past_perf":      c.PastPerf,
		"fault_history":  float64(c.FaultHistory),
		"fatigue_h":      c.FatigueH,
		"fault_severity": float64(c.FaultSeverity),
	}
}

// Validate checks every field against its documented bounds and
// reports the first violation with the offending field named.
func (c Candidate) Validate() error {
	if c.DistanceM < 0 {
		return &ValidationError{Field: "distance_m", Reason: "must be >= 0"}
	}
	if c.DistanceCat < 0 || c.DistanceCat > 2 {
		return &ValidationError{Field: "distance_cat", Reason: "must be 0, 1 or 2"}
	}
	if c.PastPerf < 1 || c.PastPerf > 10 {
		return &ValidationError{Field: "past_perf", Reason: "must be between 1 and 10"}
	}
	if c.FaultHistory < 0 {
		return &ValidationError{Field: "fault_history", Reason: "must be >= 0"}
	}
	if c.FatigueH < 0 || c.FatigueH > 24 {
		return &ValidationError{Field: "fatigue_h", Reason: "must be between 0 and 24"}
	}
	if c.FaultSeverity < 1 || c.FaultSeverity > 3 {
		return &ValidationError{Field: "fault_severity", Reason: "must be 1, 2 or 3"}
	}
	return nil
}

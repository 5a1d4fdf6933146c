// Package synth produces labeled synthetic dispatch tables used to
// supervise the regressor. Generation is fully determined by the seed.
package synth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution parameters of the synthetic fleet.
const (
	distanceScaleM  = 2000.0 // mean distance to fault in meters
	perfMean        = 7.0
	perfSigma       = 1.5
	historyLambda   = 1.0 // similar faults handled
	dailyFaultsRate = 3.0 // faults per day, drives fatigue
)

// Table is a column-major synthetic dispatch dataset. Column order
// matches model.FeatureColumns; Label carries the rule-based dispatch
// score once Score has been applied.
type Table struct {
	DistanceM     []float64
	DistanceCat   []float64
	PastPerf      []float64
	FaultHistory  []float64
	FatigueH      []float64
	FaultSeverity []float64
	Label         []float64
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.DistanceM) }

// Row returns row i in model.FeatureColumns order.
func (t *Table) Row(i int) []float64 {
	return []float64{
		t.DistanceM[i],
		t.DistanceCat[i],
		t.PastPerf[i],
		t.FaultHistory[i],
		t.FatigueH[i],
		t.FaultSeverity[i],
	}
}

// DistanceCategory buckets a distance in meters: <1000m is 0, <5000m
// is 1, anything farther is 2.
func DistanceCategory(m float64) int {
	switch {
	case m < 1000:
		return 0
	case m < 5000:
		return 1
	default:
		return 2
	}
}

// Generate builds an n-row table from a single seeded source. The same
// (n, seed) pair always reproduces the identical table. Columns are
// drawn one at a time so the draw order is stable.
func Generate(n int, seed int64) *Table {
	src := rand.NewPCG(uint64(seed), uint64(seed))

	t := &Table{
		DistanceM:     make([]float64, n),
		DistanceCat:   make([]float64, n),
		PastPerf:      make([]float64, n),
		FaultHistory:  make([]float64, n),
		FatigueH:      make([]float64, n),
		FaultSeverity: make([]float64, n),
	}

	faultsToday := distuv.Poisson{Lambda: dailyFaultsRate, Src: src}
	for i := 0; i < n; i++ {
		t.FatigueH[i] = clip(2*faultsToday.Rand(), 0, 24)
	}

	distance := distuv.Exponential{Rate: 1 / distanceScaleM, Src: src}
	for i := 0; i < n; i++ {
		t.DistanceM[i] = distance.Rand()
		t.DistanceCat[i] = float64(DistanceCategory(t.DistanceM[i]))
	}

	perf := distuv.Normal{Mu: perfMean, Sigma: perfSigma, Src: src}
	for i := 0; i < n; i++ {
		t.PastPerf[i] = clip(perf.Rand(), 1, 10)
	}

	history := distuv.Poisson{Lambda: historyLambda, Src: src}
	for i := 0; i < n; i++ {
		t.FaultHistory[i] = history.Rand()
	}

	rng := rand.New(src)
	for i := 0; i < n; i++ {
		t.FaultSeverity[i] = float64(1 + rng.IntN(3))
	}

	return t
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

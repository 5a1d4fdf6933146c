package synth

// Weights of the rule-based dispatch score. They sum to 1.
const (
	wDistance = 0.45
	wHistory  = 0.25
	wFatigue  = 0.15
	wSeverity = 0.05
	wPerf     = 0.10
)

const eps = 1e-6

// Score fills t.Label with the rule-based dispatch score: five
// normalized sub-scores in [0,1] combined with fixed weights, then
// min-max scaled across the table to [0,100]. The label supervises the
// regressor at training time only.
func Score(t *Table) {
	n := t.Len()
	if n == 0 {
		t.Label = nil
		return
	}

	maxDist := maxOf(t.DistanceM)
	maxHist := maxOf(t.FaultHistory)

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		distScore := clip(1-t.DistanceM[i]/(maxDist+eps), 0, 1)
		histScore := clip(t.FaultHistory[i]/(maxHist+eps), 0, 1)
		fatigueScore := clip(1-t.FatigueH[i]/24, 0, 1)
		severityScore := t.FaultSeverity[i] / 3
		perfScore := t.PastPerf[i] / 10

		raw[i] = wDistance*distScore +
			wHistory*histScore +
			wFatigue*fatigueScore +
			wSeverity*severityScore +
			wPerf*perfScore
	}

	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo

	t.Label = make([]float64, n)
	for i, v := range raw {
		if span == 0 {
			t.Label[i] = 0
			continue
		}
		t.Label[i] = (v - lo) / span * 100
	}
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, v := range xs {
		if v > m {
			m = v
		}
	}
	return m
}

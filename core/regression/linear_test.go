package regression

import (
	"math"
	"testing"
)

func TestFit_RecoversLinearRelation(t *testing.T) {
	// y = 3 + 2*x0 - 0.5*x1, exactly linear, so OLS must recover the
	// coefficients to numerical precision.
	rows := [][]float64{
		{1, 2}, {2, 1}, {3, 5}, {4, 0}, {5, 3}, {6, 7}, {0, 4},
	}
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = 3 + 2*r[0] - 0.5*r[1]
	}
	m, err := Fit(rows, y)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	const tol = 1e-9
	if math.Abs(m.Intercept-3) > tol {
		t.Fatalf("intercept %v, want 3", m.Intercept)
	}
	if math.Abs(m.Weights[0]-2) > tol || math.Abs(m.Weights[1]+0.5) > tol {
		t.Fatalf("weights %v, want [2 -0.5]", m.Weights)
	}
	if got := m.Predict([]float64{10, 10}); math.Abs(got-18) > tol {
		t.Fatalf("predict: got %v, want 18", got)
	}
}

func TestFit_InputValidation(t *testing.T) {
	if _, err := Fit(nil, nil); err == nil {
		t.Fatal("expected error for empty rows")
	}
	if _, err := Fit([][]float64{{1}}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for mismatched target length")
	}
	if _, err := Fit([][]float64{{1, 2}, {3}}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for ragged rows")
	}
	if _, err := Fit([][]float64{{1, 2}}, []float64{1}); err == nil {
		t.Fatal("expected error when rows < features+1")
	}
}

// Package regression provides the regressor capability backing dispatch
// scores and the persisted model artifact format.
package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ModelType identifies the regressor family stored in artifacts.
const ModelType = "ols_linear"

// LinearModel is an ordinary least squares regressor over a fixed
// feature schema. Once fitted it is read-only.
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
}

// Fit solves the least squares problem for the given rows against the
// target using a QR decomposition. Every row must have the same width
// and len(y) must match len(rows).
func Fit(rows [][]float64, y []float64) (*LinearModel, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.New("no training rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("target length %d does not match %d rows", len(y), n)
	}
	p := len(rows[0])
	if p == 0 {
		return nil, errors.New("empty feature rows")
	}
	if n < p+1 {
		return nil, fmt.Errorf("need at least %d rows to fit %d features", p+1, p)
	}

	// First column is the intercept.
	x := mat.NewDense(n, p+1, nil)
	for i, row := range rows {
		if len(row) != p {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), p)
		}
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("solve least squares: %w", err)
	}

	m := &LinearModel{Intercept: beta.At(0, 0), Weights: make([]float64, p)}
	for j := 0; j < p; j++ {
		m.Weights[j] = beta.At(j+1, 0)
	}
	return m, nil
}

// Predict returns the score for a single feature vector. The vector
// must follow the schema the model was fitted on.
func (m *LinearModel) Predict(features []float64) float64 {
	s := m.Intercept
	for i, w := range m.Weights {
		s += w * features[i]
	}
	return s
}

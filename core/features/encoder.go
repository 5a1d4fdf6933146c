// Package features converts candidates into the fixed-order numeric
// vectors the regressor consumes.
package features

import (
	"fmt"

	"github.com/kilianp07/dispatchml/core/model"
)

// Encode maps a candidate onto the given feature schema, preserving
// column order exactly. The encoder performs no range validation; an
// unknown schema column means the artifact and the candidate type
// disagree and yields a SchemaMismatchError.
func Encode(c model.Candidate, schema []string) ([]float64, error) {
	fields := c.Fields()
	vec := make([]float64, len(schema))
	for i, col := range schema {
		v, ok := fields[col]
		if !ok {
			return nil, &model.SchemaMismatchError{Detail: fmt.Sprintf("unknown column %q", col)}
		}
		vec[i] = v
	}
	return vec, nil
}

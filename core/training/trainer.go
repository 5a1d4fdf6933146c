// Package training runs the model training pipeline and serialises
// training sessions.
package training

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/dispatchml/core/logger"
	"github.com/kilianp07/dispatchml/core/model"
	"github.com/kilianp07/dispatchml/core/regression"
	"github.com/kilianp07/dispatchml/core/synth"
)

const testFraction = 0.2

// Trainer generates synthetic dispatch data, fits the regressor and
// persists the resulting artifact.
type Trainer struct {
	modelPath string
	log       logger.Logger
}

// NewTrainer creates a trainer writing artifacts to modelPath.
func NewTrainer(modelPath string, log logger.Logger) *Trainer {
	return &Trainer{modelPath: modelPath, log: log}
}

// Train runs the full pipeline for the given sample count and seed:
// generate, label, 80/20 split, fit, evaluate on the held-out rows and
// persist. The artifact file is replaced atomically. Failures are
// wrapped in a model.TrainingError naming the stage.
func (t *Trainer) Train(nSamples int, seed int64) (*regression.Artifact, error) {
	t.log.Infof("generating %d synthetic records (seed %d)", nSamples, seed)
	tbl := synth.Generate(nSamples, seed)
	synth.Score(tbl)

	trainIdx, testIdx := split(nSamples, seed)

	trainRows := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = tbl.Row(idx)
		trainY[i] = tbl.Label[idx]
	}

	t.log.Infof("fitting regressor on %d samples", len(trainRows))
	m, err := regression.Fit(trainRows, trainY)
	if err != nil {
		return nil, &model.TrainingError{Stage: "fit", Err: err}
	}

	estimates := make([]float64, len(testIdx))
	actual := make([]float64, len(testIdx))
	var absErr float64
	for i, idx := range testIdx {
		estimates[i] = m.Predict(tbl.Row(idx))
		actual[i] = tbl.Label[idx]
		absErr += math.Abs(estimates[i] - actual[i])
	}
	mae := absErr / float64(len(testIdx))
	r2 := stat.RSquaredFrom(estimates, actual, nil)
	t.log.Infof("evaluation on %d held-out samples: mae=%.3f r2=%.3f", len(testIdx), mae, r2)

	art := &regression.Artifact{
		ModelType:       regression.ModelType,
		Model:           m,
		Features:        model.FeatureColumns,
		RandomSeed:      seed,
		TrainingSamples: len(trainIdx),
		TestSamples:     len(testIdx),
		MAE:             mae,
		R2:              r2,
	}
	if err := art.WriteFile(t.modelPath); err != nil {
		return nil, &model.TrainingError{Stage: "persist", Err: err}
	}
	t.log.Infof("model saved to %s", t.modelPath)
	return art, nil
}

// split shuffles row indices with the training seed and carves off the
// held-out test set (20%, rounded up).
func split(n int, seed int64) (train, test []int) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	return perm[nTest:], perm[:nTest]
}

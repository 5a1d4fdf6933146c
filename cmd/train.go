package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apidispatch "github.com/kilianp07/dispatchml/api/dispatch"
	"github.com/kilianp07/dispatchml/config"
	"github.com/kilianp07/dispatchml/core/training"
	"github.com/kilianp07/dispatchml/infra/logger"
)

var (
	trainSamples int
	trainSeed    int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a new dispatch model on synthetic data",
	RunE:  trainModel,
}

func init() {
	trainCmd.Flags().IntVar(&trainSamples, "samples", 3000, "number of synthetic samples")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "random seed")
	rootCmd.AddCommand(trainCmd)
}

func trainModel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if trainSamples < apidispatch.MinSamples || trainSamples > apidispatch.MaxSamples {
		return fmt.Errorf("samples must be between %d and %d", apidispatch.MinSamples, apidispatch.MaxSamples)
	}

	logg := logger.New("train-command")
	trainer := training.NewTrainer(cfg.Model.Path, logg)
	art, err := trainer.Train(trainSamples, trainSeed)
	if err != nil {
		return err
	}
	logg.Infof("training completed: mae=%.3f r2=%.3f model=%s", art.MAE, art.R2, cfg.Model.Path)
	return nil
}

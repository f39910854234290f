package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/peternara/geostyle/panel"
	"github.com/spf13/cobra"
)

type simulateFlags struct {
	series      int
	steps       int
	seed        uint64
	values      string
	confidences string
}

func simulateCmd() *cobra.Command {
	var f simulateFlags
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic values and confidences panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return runSimulate(f)
		},
	}

	cmd.Flags().IntVar(&f.series, "series", 100, "Number of series")
	cmd.Flags().IntVar(&f.steps, "steps", 156, "Number of weekly time steps")
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&f.values, "values", "values.json", "Values panel output (JSON)")
	cmd.Flags().StringVar(&f.confidences, "confidences", "confidences.json", "Confidences panel output (JSON)")

	return cmd
}

func runSimulate(f simulateFlags) error {
	if f.series < 1 || f.steps < 1 {
		return fmt.Errorf("got %d series of %d steps, %w", f.series, f.steps, panel.ErrEmptyPanel)
	}
	values, confidences, err := panel.Simulate(f.series, f.steps, rand.New(rand.NewPCG(f.seed, f.seed)))
	if err != nil {
		return fmt.Errorf("unable to simulate panels, %w", err)
	}
	if err := writePanel(f.values, values); err != nil {
		return err
	}
	if err := writePanel(f.confidences, confidences); err != nil {
		return err
	}
	slog.Info("wrote simulated panels", "series", f.series, "steps", f.steps, "values", f.values, "confidences", f.confidences)
	return nil
}

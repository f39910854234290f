package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/peternara/geostyle"
	"github.com/peternara/geostyle/internal/config"
	"github.com/peternara/geostyle/metrics"
	"github.com/peternara/geostyle/panel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// maxPlotSeries bounds the charts rendered when no series are requested
const maxPlotSeries = 20

type predictFlags struct {
	values      string
	confidences string
	gap         int
	predtill    int
	output      string
	plot        string
	plotSeries  []int
}

func predictCmd() *cobra.Command {
	var f predictFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast a values panel weighted by its confidences panel",
		Long: `Reads [1, T, N] values and confidences panels as JSON, fits every series over
time steps [0, T-1-gap) and forecasts time steps [T-predtill, T). Prints the scores and a row
per series or writes the full results as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runPredict(cmd.Context(), cfg, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.values, "values", "", "Values panel (JSON)")
	cmd.Flags().StringVar(&f.confidences, "confidences", "", "Confidences panel (JSON)")
	cmd.Flags().IntVar(&f.gap, "gap", 0, "Trailing time steps excluded from training")
	cmd.Flags().IntVar(&f.predtill, "predtill", 1, "Number of time steps to forecast")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Results file (JSON), prints a table if empty")
	cmd.Flags().StringVar(&f.plot, "plot", "", "Chart file (HTML)")
	cmd.Flags().IntSliceVar(&f.plotSeries, "plot-series", nil, "Series indexes to chart")
	_ = cmd.MarkFlagRequired("values")
	_ = cmd.MarkFlagRequired("confidences")

	return cmd
}

func runPredict(ctx context.Context, cfg *config.Config, f predictFlags, stdout io.Writer) error {
	values, err := readPanel(f.values)
	if err != nil {
		return err
	}
	confidences, err := readPanel(f.confidences)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		m = metrics.New(reg)
	}

	fc, err := geostyle.New(&geostyle.Options{
		ForecastOptions:  cfg.ForecastOptions(),
		Parallelization:  cfg.Batch.Parallelization,
		ProgressInterval: cfg.Batch.ProgressInterval,
		Metrics:          m,
	})
	if err != nil {
		return fmt.Errorf("unable to create forecaster, %w", err)
	}

	res, predictErr := fc.Predict(ctx, values, confidences, f.gap, f.predtill)

	// metrics are written for failed batches too
	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Path, reg); err != nil {
			slog.Warn("unable to write metrics", "path", cfg.Metrics.Path, "error", err)
		}
	}
	if predictErr != nil {
		return fmt.Errorf("unable to forecast, %w", predictErr)
	}

	if f.output != "" {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to encode results, %w", err)
		}
		if err := os.WriteFile(f.output, b, 0o644); err != nil {
			return fmt.Errorf("unable to write results, %w", err)
		}
		slog.Info("wrote results", "path", f.output)
	} else if err := res.TablePrint(stdout, "", "  "); err != nil {
		return fmt.Errorf("unable to print results, %w", err)
	}

	if f.plot != "" {
		if err := writePlot(f.plot, res, values, f.plotSeries); err != nil {
			return err
		}
		slog.Info("wrote chart", "path", f.plot)
	}
	return nil
}

func writePlot(path string, res *geostyle.Results, values *panel.Panel, idx []int) error {
	if len(idx) == 0 {
		_, n := values.Dims()
		for i := 0; i < min(n, maxPlotSeries); i++ {
			idx = append(idx, i)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create chart file, %w", err)
	}
	defer file.Close()

	if err := res.PlotSeries(file, values, idx...); err != nil {
		return fmt.Errorf("unable to plot series, %w", err)
	}
	return nil
}

func readPanel(path string) (*panel.Panel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read panel, %w", err)
	}
	var p panel.Panel
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("unable to decode panel %s, %w", path, err)
	}
	return &p, nil
}

func writePanel(path string, p *panel.Panel) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("unable to encode panel, %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("unable to write panel, %w", err)
	}
	return nil
}

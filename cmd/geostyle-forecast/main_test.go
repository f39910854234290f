package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/peternara/geostyle/internal/config"
	"github.com/peternara/geostyle/panel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulateInto(t *testing.T, dir string) simulateFlags {
	t.Helper()
	f := simulateFlags{
		series:      4,
		steps:       104,
		seed:        7,
		values:      filepath.Join(dir, "values.json"),
		confidences: filepath.Join(dir, "confidences.json"),
	}
	require.Nil(t, runSimulate(f))
	return f
}

func TestRunSimulate(t *testing.T) {
	f := simulateInto(t, t.TempDir())

	values, err := readPanel(f.values)
	require.Nil(t, err)
	steps, n := values.Dims()
	assert.Equal(t, 104, steps)
	assert.Equal(t, 4, n)

	err = runSimulate(simulateFlags{series: 0, steps: 10})
	assert.ErrorIs(t, err, panel.ErrEmptyPanel)
}

func TestRunPredict(t *testing.T) {
	dir := t.TempDir()
	sim := simulateInto(t, dir)

	cfg := config.DefaultConfig()
	cfg.Batch.Parallelization = 2
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = filepath.Join(dir, "geostyle.prom")

	f := predictFlags{
		values:      sim.values,
		confidences: sim.confidences,
		gap:         25,
		predtill:    26,
		output:      filepath.Join(dir, "results.json"),
		plot:        filepath.Join(dir, "chart.html"),
	}
	require.Nil(t, runPredict(context.Background(), cfg, f, &bytes.Buffer{}))

	b, err := os.ReadFile(f.output)
	require.Nil(t, err)
	var res struct {
		Predtill int `json:"predtill"`
		Series   []struct {
			Selected string    `json:"selected"`
			Forecast []float64 `json:"forecast"`
		} `json:"series"`
	}
	require.Nil(t, json.Unmarshal(b, &res))
	assert.Equal(t, 26, res.Predtill)
	require.Len(t, res.Series, 4)
	for _, s := range res.Series {
		assert.Len(t, s.Forecast, 26)
	}

	chart, err := os.ReadFile(f.plot)
	require.Nil(t, err)
	assert.Contains(t, string(chart), "Series 3")

	prom, err := os.ReadFile(cfg.Metrics.Path)
	require.Nil(t, err)
	assert.Contains(t, string(prom), `geostyle_batches_total{outcome="ok"} 1`)
}

func TestRunPredictTable(t *testing.T) {
	sim := simulateInto(t, t.TempDir())

	var out bytes.Buffer
	f := predictFlags{values: sim.values, confidences: sim.confidences, gap: 0, predtill: 1}
	require.Nil(t, runPredict(context.Background(), config.DefaultConfig(), f, &out))
	assert.Contains(t, out.String(), "Results:")
	assert.Contains(t, out.String(), "Selected")
}

func TestRunPredictErrors(t *testing.T) {
	dir := t.TempDir()
	sim := simulateInto(t, dir)

	bad := filepath.Join(dir, "bad.json")
	require.Nil(t, os.WriteFile(bad, []byte(`[[[1]],[[2]]]`), 0o644))

	testData := map[string]struct {
		flags predictFlags
		err   error
	}{
		"missing values": {
			flags: predictFlags{values: filepath.Join(dir, "missing.json"), confidences: sim.confidences, predtill: 1},
			err:   os.ErrNotExist,
		},
		"batch size": {
			flags: predictFlags{values: bad, confidences: sim.confidences, predtill: 1},
		},
		"invalid request": {
			flags: predictFlags{values: sim.values, confidences: sim.confidences, gap: 0, predtill: 2},
			err:   panel.ErrInvalidRequest,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := runPredict(context.Background(), config.DefaultConfig(), td.flags, &bytes.Buffer{})
			if td.err == nil {
				require.Error(t, err)
				return
			}
			require.ErrorIs(t, err, td.err)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, setupLogging(config.LoggingConfig{Level: "warn", Format: "json"}, &buf))
	t.Cleanup(func() {
		_ = setupLogging(config.DefaultConfig().Logging, os.Stderr)
	})

	slog.Info("hidden")
	slog.Warn("shown", "series", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	err := setupLogging(config.LoggingConfig{Level: "loud"}, &buf)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

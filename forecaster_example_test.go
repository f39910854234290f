package geostyle

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"

	"github.com/peternara/geostyle/forecast/options"
	"github.com/peternara/geostyle/panel"
)

func generateExamplePanels(n, t int) (*panel.Panel, *panel.Panel) {
	values, confs, err := panel.Simulate(n, t, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		panic(err)
	}
	return values, confs
}

func runForecastExample(opt *Options, values, confs *panel.Panel, gap, predtill int, filename string) error {
	f, err := New(opt)
	if err != nil {
		return err
	}

	res, err := f.Predict(context.Background(), values, confs, gap, predtill)
	if err != nil {
		return err
	}
	if err := res.TablePrint(os.Stderr, "", "  "); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return res.PlotSeries(file, values, 0, 1, 2, 3)
}

func recoverForecastPanic(t *testing.T) {
	if r := recover(); r != nil {
		if t != nil {
			t.Errorf("panic: %v\n", r)
		} else {
			fmt.Printf("panic: %v\n", r)
		}
		debug.PrintStack()
	}
}

func Example_forecasterYearlyCycle() {
	defer recoverForecastPanic(nil)

	values, confs := generateExamplePanels(8, 156)
	if err := runForecastExample(nil, values, confs, 51, 52, "examples/forecaster_yearly_cycle.html"); err != nil {
		panic(err)
	}
}

func Example_forecasterLinearOnly() {
	defer recoverForecastPanic(nil)

	values, confs := generateExamplePanels(8, 156)

	fOpt := options.NewDefaultOptions()
	fOpt.SinusoidOptions.Disabled = true
	opt := &Options{ForecastOptions: fOpt}
	if err := runForecastExample(opt, values, confs, 51, 52, "examples/forecaster_linear_only.html"); err != nil {
		panic(err)
	}
}

func Example_forecasterConfidenceAsWeight() {
	defer recoverForecastPanic(nil)

	values, confs := generateExamplePanels(8, 156)

	fOpt := options.NewDefaultOptions()
	fOpt.ConfidenceAsWeight = true
	opt := &Options{ForecastOptions: fOpt, Parallelization: 4}
	if err := runForecastExample(opt, values, confs, 25, 26, "examples/forecaster_confidence_as_weight.html"); err != nil {
		panic(err)
	}
}

func TestForecastExample(t *testing.T) {
	defer recoverForecastPanic(t)

	values, confs := generateExamplePanels(6, 104)
	if err := runForecastExample(nil, values, confs, 25, 26, filepath.Join(t.TempDir(), "forecaster.html")); err != nil {
		t.Fatal(err)
	}
}

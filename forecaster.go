// Package geostyle forecasts batches of weekly trend series. Each series is fit with a linear
// model and a sinusoidal-linear model and the sinusoid is only used when it explains the
// training window substantially better.
package geostyle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/peternara/geostyle/forecast"
	"github.com/peternara/geostyle/metrics"
	"github.com/peternara/geostyle/panel"
	"golang.org/x/sync/errgroup"
)

var ErrUninitializedForecaster = errors.New("uninitialized forecaster")

// Forecaster runs a forecast over every series of a panel
type Forecaster struct {
	opt      *Options
	forecast *forecast.Forecast
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate options, %w", err)
	}

	fc, err := forecast.New(opt.ForecastOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize series forecast, %w", err)
	}
	return &Forecaster{
		opt:      opt,
		forecast: fc,
	}, nil
}

// Predict fits every series of values over its training window, time steps [0, T-1-gap), and
// forecasts time steps [T-predtill, T). The request is rejected with panel.ErrInvalidRequest
// before any fitting if predtill-1 > gap. A linear fit failure of any series aborts the batch
// with an error matching forecast.ErrFitFailure and no results. Cancelling ctx aborts the batch
// with an error matching forecast.ErrCancelled.
func (f *Forecaster) Predict(ctx context.Context, values, confidences *panel.Panel, gap, predtill int) (*Results, error) {
	if f == nil {
		return nil, ErrUninitializedForecaster
	}

	ext, err := panel.Extract(values, confidences, gap, predtill)
	if err != nil {
		f.opt.Metrics.RecordBatch(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("unable to extract series, %w", err)
	}

	n := ext.NumSeries()
	series := make([]SeriesResult, n)
	prog := &progress{
		total:    n,
		interval: f.opt.ProgressInterval,
		report:   f.opt.Progress,
	}

	if f.opt.Parallelization <= 1 {
		for i := 0; i < n; i++ {
			if err := f.predictSeries(ctx, ext, i, series); err != nil {
				return nil, f.batchError(err)
			}
			prog.done()
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.opt.Parallelization)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				if err := f.predictSeries(gctx, ext, i, series); err != nil {
					return err
				}
				prog.done()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, f.batchError(err)
		}
	}

	res, err := newResults(ext, series)
	if err != nil {
		f.opt.Metrics.RecordBatch(metrics.OutcomeFailed)
		return nil, err
	}
	f.opt.Metrics.RecordBatch(metrics.OutcomeOK)
	slog.Info("batch forecast complete", "series", n, "mae", res.MAE, "mape", res.MAPE)
	return res, nil
}

// predictSeries fits series i and writes its result at index i
func (f *Forecaster) predictSeries(ctx context.Context, ext *panel.Extraction, i int, out []SeriesResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("series %d not started, %w: %w", i, forecast.ErrCancelled, err)
	}

	start := time.Now()
	trend, conf := ext.Training(i)
	fit, err := f.forecast.Fit(ctx, trend, conf)
	if err != nil {
		if !forecast.IsCancellation(err) {
			f.opt.Metrics.RecordFit(forecast.CurveLinear, 0, err)
		}
		return fmt.Errorf("unable to forecast series %d, %w", i, err)
	}

	f.opt.Metrics.RecordFit(forecast.CurveLinear, fit.Linear.Iterations, nil)
	switch {
	case fit.Sinusoid != nil:
		f.opt.Metrics.RecordFit(forecast.CurveSinusoidalLinear, fit.Sinusoid.Iterations, nil)
	case fit.SinusoidErr != nil:
		f.opt.Metrics.RecordFit(forecast.CurveSinusoidalLinear, 0, fit.SinusoidErr)
		slog.Debug("dropping sinusoidal candidate", "series", i, "error", fit.SinusoidErr)
	}

	selected := f.forecast.Select(fit)
	res := SeriesResult{
		Index:    i,
		Selected: selected.Name(),
		Linear:   fit.Linear,
		Sinusoid: fit.Sinusoid,
		Forecast: selected.Predict(ext.Horizon()),
	}
	if fit.SinusoidErr != nil {
		res.SinusoidError = fit.SinusoidErr.Error()
	}
	out[i] = res

	f.opt.Metrics.RecordSelection(res.Selected, time.Since(start))
	return nil
}

func (f *Forecaster) batchError(err error) error {
	if forecast.IsCancellation(err) {
		f.opt.Metrics.RecordBatch(metrics.OutcomeCancelled)
		if !errors.Is(err, forecast.ErrCancelled) {
			err = fmt.Errorf("%w: %w", forecast.ErrCancelled, err)
		}
		return err
	}
	f.opt.Metrics.RecordBatch(metrics.OutcomeFailed)
	return err
}

// progress reports the number of processed series every interval series
type progress struct {
	mu       sync.Mutex
	count    int
	total    int
	interval int
	report   func(done, total int)
}

func (p *progress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	if (p.count-1)%p.interval != 0 {
		return
	}
	slog.Info("forecast progress", "done", p.count, "total", p.total)
	if p.report != nil {
		p.report(p.count, p.total)
	}
}

package geostyle

import (
	"errors"
	"fmt"

	"github.com/peternara/geostyle/forecast/options"
	"github.com/peternara/geostyle/metrics"
)

const DefaultProgressInterval = 100

var (
	ErrNegativeParallelization  = errors.New("negative parallelization")
	ErrNegativeProgressInterval = errors.New("negative progress interval")
)

// Options configures a batch forecast
type Options struct {
	ForecastOptions *options.Options `json:"forecast_options"`

	// Parallelization is the number of series fit concurrently. 0 or 1 fits series one at a time.
	Parallelization int `json:"parallelization"`

	// ProgressInterval is the number of processed series between progress reports. Reports are
	// made after the 1st, (ProgressInterval+1)th, (2*ProgressInterval+1)th series and so on.
	ProgressInterval int `json:"progress_interval"`

	// Progress is called with the number of processed series and the total on every report.
	// Calls are serialized.
	Progress func(done, total int) `json:"-"`

	// Metrics records fits, selections and batch outcomes. nil disables metrics.
	Metrics *metrics.Metrics `json:"-"`
}

// NewDefaultOptions returns sequential batch options with default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ForecastOptions:  options.NewDefaultOptions(),
		Parallelization:  1,
		ProgressInterval: DefaultProgressInterval,
	}
}

// Validate checks the options and returns a copy with defaults filled in
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	out := *o

	if out.Parallelization < 0 {
		return nil, fmt.Errorf("got %d, %w", out.Parallelization, ErrNegativeParallelization)
	}
	if out.Parallelization == 0 {
		out.Parallelization = 1
	}
	if out.ProgressInterval < 0 {
		return nil, fmt.Errorf("got %d, %w", out.ProgressInterval, ErrNegativeProgressInterval)
	}
	if out.ProgressInterval == 0 {
		out.ProgressInterval = DefaultProgressInterval
	}

	fOpt, err := out.ForecastOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}
	out.ForecastOptions = fOpt
	return &out, nil
}

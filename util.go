package geostyle

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/peternara/geostyle/forecast/util"
	"github.com/peternara/geostyle/panel"
)

var (
	ErrNoResults         = errors.New("no results to plot")
	ErrSeriesOutOfRange  = errors.New("series index out of range")
	ErrPanelSizeMismatch = errors.New("values panel does not match results")
)

// LineSeries generates an echart multi-line chart over the time steps x. Each slice of y must
// have the same length as x and NaN values are left as gaps.
func LineSeries(title string, seriesName []string, x []float64, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Trigger: "axis",
			},
		),
		charts.WithLegendOpts(
			opts.Legend{
				Top: "bottom",
			},
		),
	)

	xAxis := make([]int, len(x))
	for i, v := range x {
		xAxis[i] = int(v)
	}
	line.SetXAxis(xAxis)

	for i, series := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) {
				lineData = append(lineData, opts.LineData{Value: nil})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line.AddSeries(series, lineData)
	}
	return line
}

// LineForecast generates an echart line chart of one series plotting the observed values, each
// candidate curve over the full time range and the emitted forecast over the horizon
func LineForecast(values []float64, res *Results, s SeriesResult) *charts.Line {
	t := len(values)
	x := util.Steps(0, t)

	names := []string{"Actual", "Linear"}
	y := [][]float64{values, s.Linear.Predict(x)}
	if s.Sinusoid != nil {
		names = append(names, "Sinusoidal Linear")
		y = append(y, s.Sinusoid.Predict(x))
	}

	forecast := make([]float64, t)
	for i := range forecast {
		forecast[i] = math.NaN()
	}
	copy(forecast[t-res.Predtill:], s.Forecast)
	names = append(names, "Forecast")
	y = append(y, forecast)

	title := fmt.Sprintf("Series %d (%s)", s.Index, s.Selected)
	return LineSeries(title, names, x, y)
}

// PlotSeries uses the Apache Echarts library to render an html page with a chart per requested
// series showing the observed values, both candidate fits and the forecast
func (r *Results) PlotSeries(w io.Writer, values *panel.Panel, idx ...int) error {
	if r == nil || len(r.Series) == 0 {
		return ErrNoResults
	}
	t, n := values.Dims()
	if n != len(r.Series) || t < r.Predtill {
		return fmt.Errorf("values have %d series and %d time steps, %w", n, t, ErrPanelSizeMismatch)
	}

	page := components.NewPage()
	page.PageTitle = "Trend Forecast"
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("series %d of %d, %w", i, n, ErrSeriesOutOfRange)
		}
		page.AddCharts(LineForecast(values.Series(i), r, r.Series[i]))
	}
	return page.Render(w)
}

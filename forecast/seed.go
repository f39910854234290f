package forecast

import (
	"math"
	"math/cmplx"

	"github.com/peternara/geostyle/leastsq"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// sinusoidStart is the default start point of the sinusoidal fit. The sinusoid alone carries
// the series with an amplitude of the trend range centered between its extremes.
func sinusoidStart(trend []float64, freq float64) []float64 {
	hi, lo := floats.Max(trend), floats.Min(trend)
	return []float64{1, hi - lo, freq, 0, (hi + lo) / 2.0, 0, 0}
}

// spectralStart returns a start point at the strongest frequency of the mean removed trend
// that lies within the frequency bounds. The amplitude and phase come from the Fourier
// coefficient of that frequency. nil is returned if no frequency bin falls inside the bounds.
func spectralStart(trend []float64, bounds *leastsq.Bounds) []float64 {
	n := len(trend)
	if n < 4 {
		return nil
	}

	mean := stat.Mean(trend, nil)
	centered := make([]float64, n)
	copy(centered, trend)
	floats.AddConst(-mean, centered)

	fft := fourier.NewFFT(n)
	coef := fft.Coefficients(nil, centered)

	fLo, fHi := bounds.Lower[2], bounds.Upper[2]
	best := -1
	bestMag := 0.0
	for k := 1; k < len(coef); k++ {
		freq := fft.Freq(k)
		if freq < fLo || freq > fHi {
			continue
		}
		if mag := cmplx.Abs(coef[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	if best < 0 {
		return nil
	}

	// y ~ A*sin(2*pi*f*x + o) = A*cos(o)*sin(2*pi*f*x) + A*sin(o)*cos(2*pi*f*x) and the
	// coefficient is sum(y*cos) - i*sum(y*sin)
	scale := 2.0 / float64(n)
	if 2*best == n {
		scale = 1.0 / float64(n)
	}
	cosPart := scale * real(coef[best])
	sinPart := -scale * imag(coef[best])

	p := []float64{
		1,
		math.Hypot(cosPart, sinPart),
		fft.Freq(best),
		math.Atan2(cosPart, sinPart),
		mean,
		0,
		0,
	}
	return bounds.Clip(p)
}

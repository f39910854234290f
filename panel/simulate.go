package panel

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Series is a single time series used to compose synthetic panels
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) Scale(c float64) Series {
	floats.Scale(c, s)
	return s
}

// Clamp limits every value to [lo, hi]
func (s Series) Clamp(lo, hi float64) Series {
	for i, v := range s {
		s[i] = math.Min(math.Max(v, lo), hi)
	}
	return s
}

// SetConst sets time steps [start, end) to val
func (s Series) SetConst(val float64, start, end int) Series {
	for i := max(start, 0); i < end && i < len(s); i++ {
		s[i] = val
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLineY returns slope*x + intercept for x = 0..n-1
func GenerateLineY(n int, slope, intercept float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, slope*float64(i)+intercept)
	}
	return Series(y)
}

// GenerateWaveY returns amp*sin(2*pi*x/period + phase) for x = 0..n-1
func GenerateWaveY(n int, amp, period, phase float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, amp*math.Sin(2.0*math.Pi*float64(i)/period+phase))
	}
	return Series(y)
}

// GenerateNoise returns normally distributed noise with standard deviation scale
func GenerateNoise(n int, scale float64, rng *rand.Rand) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*scale)
	}
	return Series(y)
}

// GenerateChange returns a step of height bias followed by a ramp of the given slope starting
// at time step chpt
func GenerateChange(n, chpt int, bias, slope float64) Series {
	y := make([]float64, n)
	for i := max(chpt, 0); i < n; i++ {
		y[i] = bias + slope*float64(i-chpt)
	}
	return Series(y)
}

// Simulate generates n weekly trend series of length t and their observation counts. Even
// series follow a yearly cycle of 52 steps with a phase set by their index. Odd series drift
// linearly and shift up at the midpoint. Values are clamped to [0, 1] and counts to [1, 80].
func Simulate(n, t int, rng *rand.Rand) (*Panel, *Panel, error) {
	series := make([][]float64, 0, n)
	counts := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		var y Series
		if i%2 == 0 {
			y = GenerateWaveY(t, 0.15, 52, float64(i)/float64(n)).
				Add(GenerateConstY(t, 0.4))
		} else {
			y = GenerateLineY(t, 0.0008*float64(i%7), 0.2).
				Add(GenerateChange(t, t/2, 0.05, 0))
		}
		y.Add(GenerateNoise(t, 0.01, rng)).Clamp(0, 1)
		series = append(series, y)

		c := GenerateConstY(t, 40).Add(GenerateNoise(t, 5, rng)).Clamp(1, 80)
		counts = append(counts, c)
	}

	values, err := NewFromSeries(series...)
	if err != nil {
		return nil, nil, err
	}
	confs, err := NewFromSeries(counts...)
	if err != nil {
		return nil, nil, err
	}
	return values, confs, nil
}

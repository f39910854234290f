package style

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/peternara/geostyle/panel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoSteps          = errors.New("accumulator needs at least one time step")
	ErrNoGroups         = errors.New("accumulator needs at least one group")
	ErrNoAttributes     = errors.New("accumulator needs at least one attribute")
	ErrDuplicateGroup   = errors.New("duplicate group")
	ErrUnknownGroup     = errors.New("unknown group")
	ErrStepOutOfRange   = errors.New("time step out of range")
	ErrMissingAttribute = errors.New("missing attribute probabilities")
)

// SeriesKey names the series of one category of an attribute within a group such as a city
func SeriesKey(group, attribute, category string) string {
	return group + "/" + attribute + "/" + category
}

// Accumulator averages classified images into a values panel and counts them into a
// confidences panel. Every (group, attribute, category) is one series and every time step is
// one period, e.g. a week. The value of a series at a step is the mean probability of its
// category over the images observed in that group and step and its confidence is the number
// of those images. Steps with no images have a value and a confidence of 0.
type Accumulator struct {
	mu sync.Mutex

	steps  int
	attrs  []Attribute
	keys   []string
	groups map[string]int // group name to index of its first series

	sums   *mat.Dense
	counts *mat.Dense
}

// NewAccumulator creates an accumulator over steps time steps for every category of attrs in
// every group
func NewAccumulator(steps int, groups []string, attrs []Attribute) (*Accumulator, error) {
	if steps < 1 {
		return nil, ErrNoSteps
	}
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	if len(attrs) == 0 {
		return nil, ErrNoAttributes
	}

	var perGroup int
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if len(a.Categories) == 0 {
			return nil, fmt.Errorf("%s, %w", a.Name, ErrNoCategories)
		}
		if _, exists := seen[a.Name]; exists {
			return nil, fmt.Errorf("%s, %w", a.Name, ErrDuplicateAttribute)
		}
		seen[a.Name] = struct{}{}
		perGroup += len(a.Categories)
	}

	index := make(map[string]int, len(groups))
	keys := make([]string, 0, perGroup*len(groups))
	for _, g := range groups {
		if _, exists := index[g]; exists {
			return nil, fmt.Errorf("%s, %w", g, ErrDuplicateGroup)
		}
		index[g] = len(keys)
		for _, a := range attrs {
			for _, c := range a.Categories {
				keys = append(keys, SeriesKey(g, a.Name, c))
			}
		}
	}

	return &Accumulator{
		steps:  steps,
		attrs:  attrs,
		keys:   keys,
		groups: index,
		sums:   mat.NewDense(steps, len(keys), nil),
		counts: mat.NewDense(steps, len(keys), nil),
	}, nil
}

// Keys returns the series names in panel order
func (a *Accumulator) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Add records the class distributions of one image observed in group at step. probs must hold
// a distribution for every attribute as returned by Classifier.ClassProbs.
func (a *Accumulator) Add(step int, group string, probs map[string][]float64) error {
	if step < 0 || step >= a.steps {
		return fmt.Errorf("step %d of %d, %w", step, a.steps, ErrStepOutOfRange)
	}
	start, ok := a.groups[group]
	if !ok {
		return fmt.Errorf("%s, %w", group, ErrUnknownGroup)
	}
	for _, attr := range a.attrs {
		p, ok := probs[attr.Name]
		if !ok {
			return fmt.Errorf("%s, %w", attr.Name, ErrMissingAttribute)
		}
		if len(p) != len(attr.Categories) {
			return fmt.Errorf("%s has %d categories and got %d probabilities, %w",
				attr.Name, len(attr.Categories), len(p), ErrCategoryMismatch)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sums := a.sums.RawRowView(step)
	counts := a.counts.RawRowView(step)
	i := start
	for _, attr := range a.attrs {
		n := len(attr.Categories)
		floats.Add(sums[i:i+n], probs[attr.Name])
		floats.AddConst(1, counts[i:i+n])
		i += n
	}
	return nil
}

// Observe classifies img and records it in group at step
func (a *Accumulator) Observe(ctx context.Context, c Classifier, step int, group string, img image.Image) error {
	probs, err := c.ClassProbs(ctx, img)
	if err != nil {
		return fmt.Errorf("unable to classify image, %w", err)
	}
	return a.Add(step, group, probs)
}

// Panels returns the mean probability panel and the observation count panel, both
// [1, steps, len(Keys())]
func (a *Accumulator) Panels() (*panel.Panel, *panel.Panel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.keys)
	values, err := panel.New(a.steps, n)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create values panel, %w", err)
	}
	confidences, err := panel.New(a.steps, n)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create confidences panel, %w", err)
	}

	for t := 0; t < a.steps; t++ {
		for i := 0; i < n; i++ {
			c := a.counts.At(t, i)
			confidences.Set(t, i, c)
			if c > 0 {
				values.Set(t, i, a.sums.At(t, i)/c)
			}
		}
	}
	return values, confidences, nil
}

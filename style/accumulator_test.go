package style

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccumulator(t *testing.T) {
	testData := map[string]struct {
		steps  int
		groups []string
		attrs  []Attribute
		keys   []string
		err    error
	}{
		"valid": {
			steps:  2,
			groups: []string{"paris", "tokyo"},
			attrs:  []Attribute{sleeve},
			keys:   []string{"paris/sleeve/short", "paris/sleeve/long", "tokyo/sleeve/short", "tokyo/sleeve/long"},
		},
		"no steps": {
			groups: []string{"paris"},
			attrs:  []Attribute{sleeve},
			err:    ErrNoSteps,
		},
		"no groups": {
			steps: 1,
			attrs: []Attribute{sleeve},
			err:   ErrNoGroups,
		},
		"no attributes": {
			steps:  1,
			groups: []string{"paris"},
			err:    ErrNoAttributes,
		},
		"empty attribute": {
			steps:  1,
			groups: []string{"paris"},
			attrs:  []Attribute{{Name: "hat"}},
			err:    ErrNoCategories,
		},
		"duplicate attribute": {
			steps:  1,
			groups: []string{"paris"},
			attrs:  []Attribute{sleeve, sleeve},
			err:    ErrDuplicateAttribute,
		},
		"duplicate group": {
			steps:  1,
			groups: []string{"paris", "paris"},
			attrs:  []Attribute{sleeve},
			err:    ErrDuplicateGroup,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			acc, err := NewAccumulator(td.steps, td.groups, td.attrs)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.keys, acc.Keys())
		})
	}
}

func TestAccumulatorAdd(t *testing.T) {
	acc, err := NewAccumulator(3, []string{"paris", "tokyo"}, []Attribute{sleeve, color})
	require.Nil(t, err)

	testData := map[string]struct {
		step  int
		group string
		probs map[string][]float64
		err   error
	}{
		"step below range": {
			step:  -1,
			group: "paris",
			err:   ErrStepOutOfRange,
		},
		"step above range": {
			step:  3,
			group: "paris",
			err:   ErrStepOutOfRange,
		},
		"unknown group": {
			group: "lima",
			err:   ErrUnknownGroup,
		},
		"missing attribute": {
			group: "paris",
			probs: map[string][]float64{"sleeve": {0.5, 0.5}},
			err:   ErrMissingAttribute,
		},
		"category mismatch": {
			group: "paris",
			probs: map[string][]float64{"sleeve": {0.5, 0.5}, "color": {1}},
			err:   ErrCategoryMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := acc.Add(td.step, td.group, td.probs)
			require.ErrorIs(t, err, td.err)
		})
	}

	// rejected observations leave the panels untouched
	_, confs, err := acc.Panels()
	require.Nil(t, err)
	for _, row := range confs.Rows() {
		for _, c := range row {
			assert.Equal(t, 0.0, c)
		}
	}
}

func TestAccumulatorPanels(t *testing.T) {
	acc, err := NewAccumulator(2, []string{"paris", "tokyo"}, []Attribute{sleeve, color})
	require.Nil(t, err)

	require.Nil(t, acc.Add(0, "paris", map[string][]float64{
		"sleeve": {0.8, 0.2},
		"color":  {0.1, 0.6, 0.3},
	}))
	require.Nil(t, acc.Add(0, "paris", map[string][]float64{
		"sleeve": {0.4, 0.6},
		"color":  {0.3, 0.2, 0.5},
	}))
	require.Nil(t, acc.Add(1, "tokyo", map[string][]float64{
		"sleeve": {0.1, 0.9},
		"color":  {1, 0, 0},
	}))

	values, confs, err := acc.Panels()
	require.Nil(t, err)

	steps, n := values.Dims()
	assert.Equal(t, 2, steps)
	assert.Equal(t, 10, n)

	assert.InDeltaSlice(t, []float64{0.6, 0.4, 0.2, 0.4, 0.4, 0, 0, 0, 0, 0}, values.Rows()[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 0, 0.1, 0.9, 1, 0, 0}, values.Rows()[1], 1e-12)
	assert.Equal(t, []float64{2, 2, 2, 2, 2, 0, 0, 0, 0, 0}, confs.Rows()[0])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, confs.Rows()[1])
}

func TestAccumulatorObserve(t *testing.T) {
	h := newTestHead(t, widthExtractor{})
	acc, err := NewAccumulator(1, []string{"paris"}, h.Attributes())
	require.Nil(t, err)

	ctx := context.Background()
	require.Nil(t, acc.Observe(ctx, h, 0, "paris", newImage(3)))

	values, confs, err := acc.Panels()
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{
		0.8175744761936437, 0.18242552380635632,
		0.09003057317038046, 0.6652409557748218, 0.24472847105479764,
	}, values.Rows()[0], 1e-12)
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, confs.Rows()[0])

	failing := newTestHead(t, widthExtractor{fail: true})
	err = acc.Observe(ctx, failing, 0, "paris", newImage(3))
	assert.ErrorIs(t, err, errExtract)
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndentExpand(t *testing.T) {
	assert.Equal(t, "", IndentExpand("  ", 0))
	assert.Equal(t, "    ", IndentExpand("  ", 2))
	assert.Equal(t, "\t\t\t", IndentExpand("\t", 3))
}

func TestSteps(t *testing.T) {
	assert.Equal(t, []float64{}, Steps(3, 0))
	assert.Equal(t, []float64{0, 1, 2}, Steps(0, 3))
	assert.Equal(t, []float64{5, 6}, Steps(5, 2))
}

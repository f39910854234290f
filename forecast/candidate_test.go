package forecast

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateJSON(t *testing.T) {
	c := &Candidate{
		Curve:      Linear{},
		Params:     []float64{1, 1},
		Error:      0.5,
		Cost:       0.125,
		Iterations: 3,
		Status:     "function",
	}
	b, err := json.Marshal(c)
	require.Nil(t, err)
	assert.JSONEq(t, `{"curve":"linear","params":[1,1],"error":0.5,"cost":0.125,"iterations":3,"status":"function"}`, string(b))

	var decoded Candidate
	require.Nil(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, c, &decoded)
	assert.Equal(t, []float64{7}, decoded.Predict([]float64{6}))

	err = decoded.UnmarshalJSON([]byte(`{"curve":"cubic","params":[1]}`))
	assert.ErrorIs(t, err, ErrUnknownCurve)

	err = decoded.UnmarshalJSON([]byte(`{"curve":"sinusoidal_linear","params":[1]}`))
	assert.ErrorIs(t, err, ErrParamsLenMismatch)
}

func TestCandidateTablePrint(t *testing.T) {
	c := &Candidate{
		Curve:      Linear{},
		Params:     []float64{1, 2},
		Error:      0.5,
		Iterations: 3,
		Status:     "function",
	}
	var buf bytes.Buffer
	require.NoError(t, c.TablePrint(&buf, "", "  ", 0))

	expected := `linear:
    Error Iterations   Status          Params
   0.5000          3 function [1.0000 2.0000]
`
	assert.Equal(t, expected, buf.String())

	var empty *Candidate
	assert.Equal(t, "", empty.Name())
}

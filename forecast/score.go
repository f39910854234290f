package forecast

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoValues       = errors.New("no values to score")
)

// Scores tracks the forecast scores against the evaluation window
type Scores struct {
	MAE  float64 `json:"mean_absolute_error"`
	MAPE float64 `json:"mean_absolute_percent_error"`
}

// NewScores calculates the forecast scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute percent error, %w", err)
	}
	return &Scores{
		MAE:  mae,
		MAPE: mape,
	}, nil
}

func checkLen(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return ErrNoValues
	}
	return nil
}

// MAE computes the mean absolute error, mean(|yhat-y|). A score of 0 means a perfect match.
func MAE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	mae := 0.0
	for i := 0; i < len(actual); i++ {
		mae += math.Abs(predicted[i] - actual[i])
	}
	mae /= float64(len(actual))
	return mae, nil
}

// MAPE computes the mean absolute percent error, mean(|yhat-y|/y)*100. Actual values of 0
// are not skipped and make the score non-finite.
func MAPE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		mape += math.Abs(predicted[i]-actual[i]) / actual[i]
	}
	mape /= float64(len(actual))
	return mape * 100.0, nil
}

// ResidualError is the root of the sum of squared residuals, sqrt(sum((yhat-y)^2))
func ResidualError(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	sse := 0.0
	for i := 0; i < len(actual); i++ {
		sse += math.Pow(predicted[i]-actual[i], 2.0)
	}
	return math.Sqrt(sse), nil
}

package forecast

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUninitializedForecast = errors.New("uninitialized forecast")
	ErrMismatchedDataLen     = errors.New("trend and confidence have different lengths")
	ErrParamsLenMismatch     = errors.New("parameter count does not match curve")

	// ErrFitFailure is matched by every error from a fit that did not converge or could not
	// start. A linear fit failure is fatal for the batch while a sinusoidal one only drops that
	// candidate.
	ErrFitFailure = errors.New("fit failure")

	// ErrCancelled is matched when a fit was interrupted by its context. It is never treated as
	// a recoverable fit failure.
	ErrCancelled = errors.New("fit cancelled")
)

// FitError reports the curve whose fit failed and the underlying solver error
type FitError struct {
	Curve string
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("unable to fit %s curve, %v", e.Curve, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

func (e *FitError) Is(target error) bool {
	return target == ErrFitFailure
}

// IsCancellation reports whether err came from a cancelled or expired context
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify wraps a solver error as either a cancellation or a fit failure of curve
func classify(curve string, err error) error {
	if IsCancellation(err) {
		return fmt.Errorf("%s fit interrupted, %w: %w", curve, ErrCancelled, err)
	}
	return &FitError{Curve: curve, Err: err}
}

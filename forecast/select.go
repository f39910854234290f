package forecast

// Select returns the candidate whose forecast is emitted. The sinusoidal candidate is chosen only
// if its error is below the linear error and below explainFactor times the linear error.
// Otherwise, or if there is no sinusoidal candidate, the linear candidate is chosen.
func Select(linear, sinusoid *Candidate, explainFactor float64) *Candidate {
	if sinusoid == nil {
		return linear
	}
	if sinusoid.Error < linear.Error && sinusoid.Error < explainFactor*linear.Error {
		return sinusoid
	}
	return linear
}

package util

// IndentExpand repeats indent growth times
func IndentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}

// Steps returns the n time step coordinates start, start+1, ..., start+n-1
func Steps(start, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(start + i)
	}
	return x
}

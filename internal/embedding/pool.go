// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

// meanPool averages token vectors of a [seq, dims] row-major hidden state,
// counting only positions whose attention mask is set.
func meanPool(hidden []float32, mask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var n float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		off := t * dims
		if off+dims > len(hidden) {
			break
		}
		for d := 0; d < dims; d++ {
			out[d] += hidden[off+d]
		}
		n++
	}
	if n > 0 {
		for d := range out {
			out[d] /= n
		}
	}
	return out
}

//go:build arm64

package sim

import (
	"github.com/viant/vec/search"
)

// Dot computes the dot product of two unit vectors via the SIMD cosine
// kernel. Callers must pass normalized (or zero) vectors of equal length.
func Dot(a, b []float32) float32 {
	// Cosine distance with unit magnitudes is 1 - a·b.
	return 1 - search.Float32s(a).CosineDistanceWithMagnitude(b, 1, 1)
}

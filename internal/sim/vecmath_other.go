//go:build !arm64

package sim

import (
	"github.com/viant/vec/search"
)

// Dot computes the dot product of two unit vectors via the cosine kernel.
// Callers must pass normalized (or zero) vectors of equal length. The
// library exports the kernel under this name on non-arm64 targets.
func Dot(a, b []float32) float32 {
	// Cosine distance with unit magnitudes is 1 - a·b.
	return 1 - search.Float32s(a).CosineDistanceWithMagnitudesNeon(b, 1, 1)
}

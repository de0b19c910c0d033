package sim

import (
	"github.com/viant/vec/search"
)

// Normalize scales v to unit L2 norm in place and returns the original
// magnitude. Zero vectors are left untouched and return 0.
func Normalize(v []float32) float32 {
	m := search.Float32s(v).Magnitude()
	if m == 0 {
		return 0
	}
	inv := 1 / m
	for i := range v {
		v[i] *= inv
	}
	return m
}

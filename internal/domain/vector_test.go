package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewSparseVector(t *testing.T) {
	tests := []struct {
		name    string
		indices []int32
		values  []float32
		wantErr bool
	}{
		{"valid", []int32{0, 3, 7}, []float32{1, 2, 3}, false},
		{"empty", nil, nil, false},
		{"length mismatch", []int32{0, 1}, []float32{1}, true},
		{"negative index", []int32{-1, 2}, []float32{1, 2}, true},
		{"not ascending", []int32{3, 1}, []float32{1, 2}, true},
		{"duplicate index", []int32{2, 2}, []float32{1, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSparseVector(tt.indices, tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSparseVector() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSparseFromDense(t *testing.T) {
	sv := SparseFromDense([]float32{0, 1.5, 0, 0, -2, 0})

	if sv.NNZ() != 2 {
		t.Fatalf("NNZ = %d, want 2", sv.NNZ())
	}
	if sv.Indices[0] != 1 || sv.Indices[1] != 4 {
		t.Errorf("Indices = %v, want [1 4]", sv.Indices)
	}
	if sv.Values[0] != 1.5 || sv.Values[1] != -2 {
		t.Errorf("Values = %v, want [1.5 -2]", sv.Values)
	}
}

func TestSparseVector_RoundTrip(t *testing.T) {
	dense := []float32{0, 2, 0, 3, 0}
	sv := SparseFromDense(dense)
	back := sv.ToDense(len(dense))

	for i := range dense {
		if back[i] != dense[i] {
			t.Errorf("ToDense()[%d] = %g, want %g", i, back[i], dense[i])
		}
	}
}

func TestSparseVector_Dot(t *testing.T) {
	sv := SparseFromDense([]float32{1, 0, 2})

	got := sv.Dot([]float32{3, 5, 4})
	if got != 11 {
		t.Errorf("Dot = %g, want 11", got)
	}

	// Indices beyond the dense length contribute nothing.
	short := sv.Dot([]float32{3})
	if short != 3 {
		t.Errorf("Dot (short dense) = %g, want 3", short)
	}
}

func TestSparseVector_NormScale(t *testing.T) {
	sv := SparseFromDense([]float32{3, 4})

	if n := sv.Norm(); math.Abs(float64(n-5)) > 1e-6 {
		t.Fatalf("Norm = %g, want 5", n)
	}

	sv.Scale(1 / sv.Norm())
	if n := sv.Norm(); math.Abs(float64(n-1)) > 1e-6 {
		t.Errorf("Norm after scale = %g, want 1", n)
	}
}

func TestSparseVector_MaxIndex(t *testing.T) {
	if idx := (SparseVector{}).MaxIndex(); idx != -1 {
		t.Errorf("empty MaxIndex = %d, want -1", idx)
	}
	sv := SparseFromDense([]float32{0, 1, 0, 2})
	if idx := sv.MaxIndex(); idx != 3 {
		t.Errorf("MaxIndex = %d, want 3", idx)
	}
}

func TestDimMismatchError(t *testing.T) {
	err := NewDimMismatch(128, 64)

	if !errors.Is(err, ErrDimMismatch) {
		t.Fatal("NewDimMismatch does not wrap ErrDimMismatch")
	}

	var dme *DimMismatchError
	if !errors.As(err, &dme) {
		t.Fatal("errors.As failed")
	}
	if dme.Want != 128 || dme.Got != 64 {
		t.Errorf("Want/Got = %d/%d, want 128/64", dme.Want, dme.Got)
	}
}

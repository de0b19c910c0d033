package sparse

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain"
)

const tol = 1e-5

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) <= tol
}

func testCorpus() []domain.SparseVector {
	return []domain.SparseVector{
		domain.SparseFromDense([]float32{1, 0, 0, 0}),
		domain.SparseFromDense([]float32{0, 1, 0, 0}),
		domain.SparseFromDense([]float32{1, 1, 0, 0}),
		domain.SparseFromDense([]float32{0, 0, 0, 1}),
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(0, testCorpus()); err == nil {
		t.Error("dim=0: expected error")
	}
	if _, err := New(4, nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("empty corpus: got %v, want ErrEmptyCorpus", err)
	}

	oob := []domain.SparseVector{domain.SparseFromDense([]float32{0, 0, 0, 0, 1})}
	if _, err := New(4, oob); !errors.Is(err, domain.ErrDimMismatch) {
		t.Errorf("out-of-range feature: got %v, want ErrDimMismatch", err)
	}
}

func TestQuery_MatchesDenseSemantics(t *testing.T) {
	idx, err := New(4, testCorpus())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scores, err := idx.Query(context.Background(), []float32{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	want := []float32{1, 0, float32(1 / math.Sqrt2), 0}
	for i := range want {
		if !approx(scores[i], want[i]) {
			t.Errorf("score %d = %g, want %g", i, scores[i], want[i])
		}
	}
}

func TestQuery_DimMismatch(t *testing.T) {
	idx, err := New(4, testCorpus())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = idx.Query(context.Background(), []float32{1})
	if !errors.Is(err, domain.ErrDimMismatch) {
		t.Errorf("got %v, want ErrDimMismatch", err)
	}
}

func TestQueryBest(t *testing.T) {
	idx, err := New(4, testCorpus())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	matches, err := idx.QueryBest(context.Background(), []float32{0, 0, 0, 1}, 1)
	if err != nil {
		t.Fatalf("QueryBest: %v", err)
	}

	if len(matches) != 1 || matches[0].DocID != 3 {
		t.Fatalf("matches = %+v, want doc 3", matches)
	}
	if !approx(matches[0].Score, 1) {
		t.Errorf("self similarity = %g, want ~1", matches[0].Score)
	}
}

func TestZeroRow_ScoresZero(t *testing.T) {
	corpus := []domain.SparseVector{
		{},
		domain.SparseFromDense([]float32{1, 0, 0, 0}),
	}
	idx, err := New(4, corpus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scores, err := idx.Query(context.Background(), []float32{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if scores[0] != 0 {
		t.Errorf("zero row score = %g, want 0", scores[0])
	}
}

func TestFromRaw_RoundTrip(t *testing.T) {
	idx, err := New(4, testCorpus())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rowPtr, cols, vals := idx.Raw()
	clone, err := FromRaw(4, rowPtr, cols, vals)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}

	ctx := context.Background()
	q := []float32{0.5, 0.5, 0, 0.7}
	a, err := idx.Query(ctx, q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	b, err := clone.Query(ctx, q)
	if err != nil {
		t.Fatalf("Query clone: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("score %d: %g != %g after round trip", i, a[i], b[i])
		}
	}
}

func TestFromRaw_Validation(t *testing.T) {
	if _, err := FromRaw(4, nil, nil, nil); err == nil {
		t.Error("empty rowPtr: expected error")
	}
	if _, err := FromRaw(4, []uint32{0, 2}, []int32{0}, []float32{1}); err == nil {
		t.Error("rowPtr tail mismatch: expected error")
	}
	if _, err := FromRaw(4, []uint32{0, 1}, []int32{0}, []float32{1, 2}); err == nil {
		t.Error("cols/vals length mismatch: expected error")
	}
}

package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
)

var testDocs = []domain.Document{
	{ID: "doc-a", Text: "Human machine interface for lab abc computer applications"},
	{ID: "doc-b", Text: "A survey of user opinion of computer system response time"},
	{ID: "doc-c", Text: "The EPS user interface management system"},
	{ID: "doc-d", Text: "Graph minors IV Widths of trees and well quasi ordering"},
}

func testDefaults() Defaults {
	return Defaults{Topics: 32, Seed: 42, ShardCapacity: 8, DensityThreshold: 0.3}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := New(t.TempDir(), testDefaults(), nil, "", zap.NewNop())
	if err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return s
}

// --- Mocks ---

type stubVectorizer struct {
	dim   int
	calls int
}

func (s *stubVectorizer) Vectorize(_ context.Context, text string) (domain.VectorizeResult, error) {
	s.calls++
	vec := make([]float32, s.dim)
	for i, r := range text {
		vec[i%s.dim] += float32(r)
	}
	return domain.VectorizeResult{Vector: vec, Tokens: len(text)}, nil
}

// --- Tests ---

func TestCreate(t *testing.T) {
	s := newTestService(t)

	info, err := s.Create(context.Background(), "articles", "", testDocs)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if info.Name != "articles" || info.Provider != ProviderLocal {
		t.Errorf("info = %+v, want name articles, provider local", info)
	}
	if info.Docs != len(testDocs) {
		t.Errorf("Docs = %d, want %d", info.Docs, len(testDocs))
	}
	if info.Dim != 32 {
		t.Errorf("Dim = %d, want 32", info.Dim)
	}
}

func TestCreate_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "Bad Name!", "", testDocs); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("invalid name: got %v, want ErrInvalidQuery", err)
	}
	if _, err := s.Create(ctx, "empty", "", nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("no docs: got %v, want ErrEmptyCorpus", err)
	}
	if _, err := s.Create(ctx, "idx", "unknown-provider", testDocs); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("unknown provider: got %v, want ErrInvalidQuery", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "dup", "", testDocs); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "dup", "", testDocs); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("got %v, want ErrAlreadyExists", err)
	}
}

func TestCreate_FailureLeavesNoDirectory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// Every token is filtered out, so the vectorizer cannot be fitted.
	bad := []domain.Document{{Text: "a of to"}}
	if _, err := s.Create(ctx, "broken", "", bad); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("got %v, want ErrEmptyCorpus", err)
	}

	// The name must be reusable afterwards.
	if _, err := s.Create(ctx, "broken", "", testDocs); err != nil {
		t.Errorf("name not reusable after failed create: %v", err)
	}
}

func TestAdd(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "grow", "", testDocs[:2]); err != nil {
		t.Fatalf("Create: %v", err)
	}

	info, err := s.Add(ctx, "grow", testDocs[2:])
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if info.Docs != len(testDocs) {
		t.Errorf("Docs = %d, want %d", info.Docs, len(testDocs))
	}

	target, err := s.Target("grow")
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if len(target.IDs) != len(testDocs) {
		t.Errorf("IDs = %v, want %d entries", target.IDs, len(testDocs))
	}
}

func TestAdd_MissingIndex(t *testing.T) {
	s := newTestService(t)

	_, err := s.Add(context.Background(), "nope", testDocs)
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("got %v, want ErrIndexNotFound", err)
	}
}

func TestGetListDelete(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "one", "", testDocs); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "two", "", testDocs); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Get("one"); err != nil {
		t.Errorf("Get: %v", err)
	}
	if _, err := s.Get("three"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("Get missing: got %v, want ErrIndexNotFound", err)
	}
	if got := len(s.List()); got != 2 {
		t.Errorf("List = %d entries, want 2", got)
	}

	if err := s.Delete("one"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("one"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("Get deleted: got %v, want ErrIndexNotFound", err)
	}
	if err := s.Delete("one"); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("Delete twice: got %v, want ErrIndexNotFound", err)
	}
}

func TestLoadAll_RestoresQueryResults(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := New(dir, testDefaults(), nil, "", zap.NewNop())
	if err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, err := s.Create(ctx, "persist", "", testDocs); err != nil {
		t.Fatalf("Create: %v", err)
	}

	target, err := s.Target("persist")
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	res, err := target.Vectorizer.Vectorize(ctx, testDocs[0].Text)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	before, err := target.Searcher.Query(ctx, res.Vector)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	// Fresh service over the same data dir.
	s2 := New(dir, testDefaults(), nil, "", zap.NewNop())
	if err := s2.LoadAll(); err != nil {
		t.Fatalf("LoadAll (reload): %v", err)
	}

	target2, err := s2.Target("persist")
	if err != nil {
		t.Fatalf("Target (reload): %v", err)
	}
	if len(target2.IDs) != len(testDocs) || target2.IDs[0] != "doc-a" {
		t.Errorf("reloaded IDs = %v", target2.IDs)
	}

	res2, err := target2.Vectorizer.Vectorize(ctx, testDocs[0].Text)
	if err != nil {
		t.Fatalf("Vectorize (reload): %v", err)
	}
	after, err := target2.Searcher.Query(ctx, res2.Vector)
	if err != nil {
		t.Fatalf("Query (reload): %v", err)
	}

	for i := range before {
		if before[i] != after[i] {
			t.Errorf("score %d: %g != %g after reload", i, before[i], after[i])
		}
	}
}

func TestCreate_RemoteProvider(t *testing.T) {
	vec := &stubVectorizer{dim: 8}
	s := New(t.TempDir(), testDefaults(), vec, "stub", zap.NewNop())
	if err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	info, err := s.Create(context.Background(), "remote-idx", "stub", testDocs)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if info.Provider != "stub" {
		t.Errorf("Provider = %q, want stub", info.Provider)
	}
	if info.Dim != 8 {
		t.Errorf("Dim = %d, want 8", info.Dim)
	}
	if vec.calls != len(testDocs) {
		t.Errorf("vectorizer called %d times, want %d", vec.calls, len(testDocs))
	}
}

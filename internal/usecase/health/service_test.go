package health

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// --- Mocks ---

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_StorageOnly(t *testing.T) {
	s := New(t.TempDir(), nil, nil)

	st := s.Check(context.Background())

	if st.Status != "ok" {
		t.Errorf("Status = %q, want ok", st.Status)
	}
	if st.Checks["storage"] != "ok" {
		t.Errorf("storage = %q, want ok", st.Checks["storage"])
	}
	if _, ok := st.Checks["cache"]; ok {
		t.Error("cache check reported without a configured store")
	}
	if _, ok := st.Checks["vectorizer"]; ok {
		t.Error("vectorizer check reported without a configured provider")
	}
}

func TestCheck_CreatesMissingDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(dir, nil, nil)

	st := s.Check(context.Background())

	if st.Status != "ok" {
		t.Errorf("Status = %q, want ok (checks: %v)", st.Status, st.Checks)
	}
}

func TestCheck_AllComponentsHealthy(t *testing.T) {
	s := New(t.TempDir(), &mockPinger{}, &mockChecker{})

	st := s.Check(context.Background())

	if st.Status != "ok" {
		t.Errorf("Status = %q, want ok", st.Status)
	}
	for _, name := range []string{"storage", "cache", "vectorizer"} {
		if st.Checks[name] != "ok" {
			t.Errorf("%s = %q, want ok", name, st.Checks[name])
		}
	}
}

func TestCheck_CacheFailureDegrades(t *testing.T) {
	s := New(t.TempDir(), &mockPinger{err: errors.New("connection refused")}, nil)

	st := s.Check(context.Background())

	if st.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", st.Status)
	}
	if st.Checks["cache"] != "connection refused" {
		t.Errorf("cache = %q, want the ping error", st.Checks["cache"])
	}
	if st.Checks["storage"] != "ok" {
		t.Errorf("storage = %q, want ok", st.Checks["storage"])
	}
}

func TestCheck_VectorizerFailureDegrades(t *testing.T) {
	s := New(t.TempDir(), nil, &mockChecker{err: errors.New("api unavailable")})

	st := s.Check(context.Background())

	if st.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", st.Status)
	}
	if st.Checks["vectorizer"] != "api unavailable" {
		t.Errorf("vectorizer = %q, want the provider error", st.Checks["vectorizer"])
	}
}

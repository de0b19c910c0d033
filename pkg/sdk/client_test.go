package simdex

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/simdex/internal/domain"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/simdex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
)

var clientDocs = []Document{
	{ID: "doc-a", Text: "Human machine interface for lab abc computer applications"},
	{ID: "doc-b", Text: "A survey of user opinion of computer system response time"},
	{ID: "doc-c", Text: "Graph minors IV Widths of trees and well quasi ordering"},
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(context.Background(), WithDataDir(t.TempDir()), WithTopics(32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// --- Mocks ---

type mockIndexUseCase struct {
	createErr error
	closeErr  error
	deleted   []string
}

func (m *mockIndexUseCase) Create(_ context.Context, name, provider string, docs []domain.Document) (indexuc.Info, error) {
	if m.createErr != nil {
		return indexuc.Info{}, m.createErr
	}
	return indexuc.Info{Name: name, Provider: provider, Docs: len(docs)}, nil
}

func (m *mockIndexUseCase) Add(_ context.Context, name string, docs []domain.Document) (indexuc.Info, error) {
	return indexuc.Info{Name: name, Docs: len(docs)}, nil
}

func (m *mockIndexUseCase) Get(name string) (indexuc.Info, error) {
	return indexuc.Info{Name: name}, nil
}

func (m *mockIndexUseCase) List() []indexuc.Info { return nil }

func (m *mockIndexUseCase) Delete(name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockIndexUseCase) CloseAll() error { return m.closeErr }

type mockSearchUseCase struct {
	resp searchuc.Response
	err  error
	last searchuc.Request
}

func (m *mockSearchUseCase) Search(_ context.Context, _ string, req searchuc.Request) (searchuc.Response, error) {
	m.last = req
	return m.resp, m.err
}

type mockHealthUseCase struct{ status healthuc.Status }

func (m *mockHealthUseCase) Check(_ context.Context) healthuc.Status { return m.status }

func mockedClient(t *testing.T, idx indexUseCase, search searchUseCase, health healthUseCase) *Client {
	t.Helper()
	obs, err := newObserver(nil, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	return &Client{indexSvc: idx, searchSvc: search, healthSvc: health, obs: obs}
}

// --- Tests ---

func TestClientLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	info, err := c.CreateIndex(ctx, "articles", clientDocs)
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if info.Name != "articles" || info.Docs != len(clientDocs) {
		t.Errorf("info = %+v", info)
	}

	res, err := c.Query(ctx, "articles", Text("graph trees minors"), TopK(2))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Matches) == 0 || res.Matches[0].ID != "doc-c" {
		t.Errorf("matches = %+v, want doc-c first", res.Matches)
	}

	full, err := c.Query(ctx, "articles", Text("graph trees minors"))
	if err != nil {
		t.Fatalf("Query (full): %v", err)
	}
	if len(full.Scores) != len(clientDocs) {
		t.Errorf("got %d scores, want %d", len(full.Scores), len(clientDocs))
	}

	if _, err := c.AddDocuments(ctx, "articles", []Document{{Text: "The EPS user interface management system"}}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if got, err := c.GetIndex("articles"); err != nil || got.Docs != len(clientDocs)+1 {
		t.Errorf("GetIndex = %+v, %v", got, err)
	}
	if got := c.ListIndexes(); len(got) != 1 {
		t.Errorf("ListIndexes = %d entries, want 1", len(got))
	}

	if err := c.DeleteIndex("articles"); err != nil {
		t.Fatalf("DeleteIndex: %v", err)
	}
	if _, err := c.GetIndex("articles"); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("got %v, want ErrIndexNotFound", err)
	}
}

func TestClientReopensPersistedIndexes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := New(ctx, WithDataDir(dir), WithTopics(32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.CreateIndex(ctx, "persist", clientDocs); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := New(ctx, WithDataDir(dir), WithTopics(32))
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	defer c2.Close()

	info, err := c2.GetIndex("persist")
	if err != nil {
		t.Fatalf("GetIndex: %v", err)
	}
	if info.Docs != len(clientDocs) {
		t.Errorf("Docs = %d, want %d", info.Docs, len(clientDocs))
	}
}

func TestQueryOptionsFillRequest(t *testing.T) {
	search := &mockSearchUseCase{}
	c := mockedClient(t, &mockIndexUseCase{}, search, &mockHealthUseCase{})

	_, err := c.Query(context.Background(), "idx",
		ByVector([]float32{1, 0}), TopK(5), MinScore(0.25))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if search.last.TopK != 5 || search.last.MinScore != 0.25 || len(search.last.Vector) != 2 {
		t.Errorf("request = %+v", search.last)
	}
}

func TestQueryErrorPropagates(t *testing.T) {
	search := &mockSearchUseCase{err: domain.ErrIndexNotFound}
	c := mockedClient(t, &mockIndexUseCase{}, search, &mockHealthUseCase{})

	_, err := c.Query(context.Background(), "missing", Text("q"))
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("got %v, want ErrIndexNotFound", err)
	}
}

func TestHealth(t *testing.T) {
	health := &mockHealthUseCase{status: healthuc.Status{
		Status: "degraded",
		Checks: map[string]string{"storage": "ok", "cache": "connection refused"},
	}}
	c := mockedClient(t, &mockIndexUseCase{}, &mockSearchUseCase{}, health)

	st := c.Health(context.Background())
	if st.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", st.Status)
	}
	if st.Checks["cache"] != "connection refused" {
		t.Errorf("Checks = %v", st.Checks)
	}
}

func TestCloseReportsError(t *testing.T) {
	idx := &mockIndexUseCase{closeErr: errors.New("disk full")}
	c := mockedClient(t, idx, &mockSearchUseCase{}, &mockHealthUseCase{})

	if err := c.Close(); err == nil {
		t.Error("expected Close to surface the error")
	}
}

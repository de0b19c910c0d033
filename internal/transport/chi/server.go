package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/simdex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
)

const maxBatchSize = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the index and search use cases.
type Server struct {
	indexes       *indexuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	indexes *indexuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexes: indexes,
		search:  search,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		dimMismatchHandler,
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, codeIndexNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeIndexAlreadyExists),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyCorpus, http.StatusBadRequest, codeEmptyCorpus),
		sentinelHandler(domain.ErrVectorizerProviderError, http.StatusBadGateway, codeVectorizerProviderError),
		sentinelHandler(domain.ErrShardCorrupted, http.StatusInternalServerError, codeShardCorrupted),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/indexes", s.CreateIndex)
		r.Get("/indexes", s.ListIndexes)
		r.Get("/indexes/{name}", s.GetIndex)
		r.Delete("/indexes/{name}", s.DeleteIndex)
		r.Post("/indexes/{name}/documents", s.AddDocuments)
		r.Post("/indexes/{name}/query", s.Query)
	})
}

// CreateIndex handles POST /api/v1/indexes.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Index name is required")
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxBatchSize))
		return
	}

	info, err := s.indexes.Create(r.Context(), req.Name, req.Provider, documentsFromRequest(req.Documents))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, indexToResponse(info))
}

// ListIndexes handles GET /api/v1/indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	infos := s.indexes.List()

	items := make([]IndexResponse, len(infos))
	for i, info := range infos {
		items[i] = indexToResponse(info)
	}

	writeJSON(w, http.StatusOK, IndexListResponse{Items: items})
}

// GetIndex handles GET /api/v1/indexes/{name}.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	info, err := s.indexes.Get(chirouter.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indexToResponse(info))
}

// DeleteIndex handles DELETE /api/v1/indexes/{name}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.indexes.Delete(chirouter.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddDocuments handles POST /api/v1/indexes/{name}/documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxBatchSize))
		return
	}

	name := chirouter.URLParam(r, "name")
	info, err := s.indexes.Add(r.Context(), name, documentsFromRequest(req.Documents))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AddDocumentsResponse{
		Added: len(req.Documents),
		Index: indexToResponse(info),
	})
}

// Query handles POST /api/v1/indexes/{name}/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq := searchuc.Request{
		Text:     req.Text,
		Vector:   req.Vector,
		MinScore: req.MinScore,
	}
	// A missing top_k requests the full score vector in insertion order.
	if req.TopK != nil {
		searchReq.TopK = *req.TopK
	}

	name := chirouter.URLParam(r, "name")
	resp, err := s.search.Search(r.Context(), name, searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := QueryResponse{Scores: resp.Scores, Tokens: resp.Tokens}
	if resp.Matches != nil {
		out.Matches = make([]QueryMatch, len(resp.Matches))
		for i, m := range resp.Matches {
			out.Matches[i] = QueryMatch{DocID: m.DocID, ID: m.ID, Score: m.Score}
		}
	}

	writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func documentsFromRequest(docs []DocumentRequest) []domain.Document {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = domain.Document{ID: d.ID, Text: d.Text}
	}
	return out
}

func indexToResponse(info indexuc.Info) IndexResponse {
	return IndexResponse{
		Name:         info.Name,
		Provider:     info.Provider,
		Dim:          info.Dim,
		Docs:         info.Docs,
		SealedShards: info.SealedShards,
		PendingDocs:  info.PendingDocs,
		CreatedAt:    info.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexNotFound,
		domain.ErrAlreadyExists,
		domain.ErrDimMismatch,
		domain.ErrInvalidQuery,
		domain.ErrEmptyCorpus,
		domain.ErrVectorizerProviderError,
		domain.ErrShardCorrupted,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// dimMismatchHandler handles ErrDimMismatch with the expected/actual dimensions.
func dimMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimMismatch) {
		return false
	}
	var dme *domain.DimMismatchError
	if errors.As(err, &dme) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":     codeDimMismatch,
			"message":  msg,
			"expected": dme.Want,
			"actual":   dme.Got,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, codeDimMismatch, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// Package openai implements a remote vectorizer provider backed by the
// OpenAI-compatible embeddings API. It is an alternative to the local
// bag-of-words pipeline for deployments that want model embeddings.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/metrics"
)

// Vectorizer is a vectorizer provider using the OpenAI-compatible API.
type Vectorizer struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

var _ domain.Vectorizer = (*Vectorizer)(nil)

// Config holds the provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// NewVectorizer creates an OpenAI-compatible vectorizer provider.
func NewVectorizer(cfg *Config) *Vectorizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Vectorizer{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// Vectorize implements domain.Vectorizer. Returns the vector and usage with
// transport-level metrics.
func (v *Vectorizer) Vectorize(ctx context.Context, text string) (domain.VectorizeResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          v.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if v.dimensions > 0 {
		req.Dimensions = v.dimensions
	}

	start := time.Now()

	resp, err := v.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.VectorizeRequestsTotal.WithLabelValues(v.provider, string(v.model), "error").Inc()
		metrics.VectorizeErrorsTotal.WithLabelValues(v.provider, string(v.model), "api_error").Inc()
		return domain.VectorizeResult{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.VectorizeRequestsTotal.WithLabelValues(v.provider, string(v.model), "error").Inc()
		metrics.VectorizeErrorsTotal.WithLabelValues(v.provider, string(v.model), "empty_response").Inc()
		return domain.VectorizeResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrVectorizerProviderError)
	}

	metrics.VectorizeRequestsTotal.WithLabelValues(v.provider, string(v.model), "success").Inc()
	metrics.VectorizeRequestDuration.WithLabelValues(v.provider, string(v.model)).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.VectorizeTokensTotal.
			WithLabelValues(v.provider, string(v.model), "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	return domain.VectorizeResult{
		Vector: resp.Data[0].Embedding,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (v *Vectorizer) HealthCheck(ctx context.Context) error {
	if _, err := v.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrVectorizerProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrVectorizerProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

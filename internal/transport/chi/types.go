package chi

// errorCode identifies an API error class in responses.
type errorCode string

const (
	codeBadRequest              errorCode = "bad_request"
	codeValidationFailed        errorCode = "validation_failed"
	codeIndexNotFound           errorCode = "index_not_found"
	codeIndexAlreadyExists      errorCode = "index_already_exists"
	codeDimMismatch             errorCode = "vector_dim_mismatch"
	codeEmptyCorpus             errorCode = "empty_corpus"
	codeShardCorrupted          errorCode = "shard_corrupted"
	codeVectorizerProviderError errorCode = "vectorizer_provider_error"
	codeNotImplemented          errorCode = "not_implemented"
	codeInternalError           errorCode = "internal_error"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// DocumentRequest is one document in a create or add request.
type DocumentRequest struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// CreateIndexRequest is the POST /indexes payload.
type CreateIndexRequest struct {
	Name      string            `json:"name"`
	Provider  string            `json:"provider,omitempty"`
	Documents []DocumentRequest `json:"documents"`
}

// AddDocumentsRequest is the POST /indexes/{name}/documents payload.
type AddDocumentsRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

// IndexResponse describes an index.
type IndexResponse struct {
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Dim          int    `json:"dim"`
	Docs         int    `json:"docs"`
	SealedShards int    `json:"sealed_shards"`
	PendingDocs  int    `json:"pending_docs"`
	CreatedAt    string `json:"created_at"`
}

// IndexListResponse is the GET /indexes payload.
type IndexListResponse struct {
	Items []IndexResponse `json:"items"`
}

// QueryRequest is the POST /indexes/{name}/query payload. Exactly one of
// Text or Vector must be set. A nil TopK requests the full score vector.
type QueryRequest struct {
	Text     string    `json:"text,omitempty"`
	Vector   []float32 `json:"vector,omitempty"`
	TopK     *int      `json:"top_k,omitempty"`
	MinScore float32   `json:"min_score,omitempty"`
}

// QueryMatch is one scored hit.
type QueryMatch struct {
	DocID int     `json:"doc_id"`
	ID    string  `json:"id,omitempty"`
	Score float32 `json:"score"`
}

// QueryResponse carries either top-k matches or the full score vector.
type QueryResponse struct {
	Matches []QueryMatch `json:"matches,omitempty"`
	Scores  []float32    `json:"scores,omitempty"`
	Tokens  int          `json:"tokens,omitempty"`
}

// AddDocumentsResponse reports the index state after an add.
type AddDocumentsResponse struct {
	Added int           `json:"added"`
	Index IndexResponse `json:"index"`
}

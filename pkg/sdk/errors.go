package simdex

import "github.com/kailas-cloud/simdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexNotFound           = domain.ErrIndexNotFound
	ErrAlreadyExists           = domain.ErrAlreadyExists
	ErrDimMismatch             = domain.ErrDimMismatch
	ErrEmptyCorpus             = domain.ErrEmptyCorpus
	ErrInvalidQuery            = domain.ErrInvalidQuery
	ErrIndexClosed             = domain.ErrIndexClosed
	ErrShardCorrupted          = domain.ErrShardCorrupted
	ErrVectorizerNotFitted     = domain.ErrVectorizerNotFitted
	ErrVectorizerProviderError = domain.ErrVectorizerProviderError
)

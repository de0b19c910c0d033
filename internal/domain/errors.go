package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrAlreadyExists signals a duplicate index.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimMismatch signals a vector dimension mismatch between a query and an index.
	ErrDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyCorpus signals an attempt to build an index from zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrInvalidQuery signals a malformed query request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexClosed signals an operation on a closed index.
	ErrIndexClosed = errors.New("index closed")
	// ErrShardCorrupted signals a shard file that failed checksum or format validation.
	ErrShardCorrupted = errors.New("shard corrupted")
	// ErrVectorizerNotFitted signals a query against a vectorizer with no trained model.
	ErrVectorizerNotFitted = errors.New("vectorizer not fitted")
	// ErrVectorizerProviderError signals a remote vectorizer provider failure.
	ErrVectorizerProviderError = errors.New("vectorizer provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// DimMismatchError wraps ErrDimMismatch with the offending sizes.
type DimMismatchError struct {
	Want int
	Got  int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: index has %d features, vector has %d", ErrDimMismatch.Error(), e.Want, e.Got)
}

func (e *DimMismatchError) Unwrap() error { return ErrDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(want, got int) error {
	return &DimMismatchError{Want: want, Got: got}
}

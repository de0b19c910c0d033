package search

import (
	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
)

// Target is a resolved query target: the index's vectorizer, its searcher,
// and the external document ids in insertion order (empty when documents
// were indexed without ids).
type Target struct {
	Vectorizer domain.Vectorizer
	Searcher   sim.Searcher
	IDs        []string
}

// Indexes resolves index names to query targets.
type Indexes interface {
	Target(name string) (Target, error)
}

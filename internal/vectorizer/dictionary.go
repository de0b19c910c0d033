package vectorizer

import (
	"sort"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Dictionary maps tokens to stable feature ids and tracks document
// frequencies. Ids are assigned in lexicographic token order, so building
// a dictionary from the same corpus always yields the same mapping.
type Dictionary struct {
	ids     map[string]int32
	tokens  []string // id -> token
	docFreq []int32  // id -> number of documents containing the token
	numDocs int
}

// BuildDictionary scans a tokenized corpus and assigns feature ids.
func BuildDictionary(docs [][]string) *Dictionary {
	seen := make(map[string]int32)
	for _, doc := range docs {
		inDoc := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			inDoc[tok] = struct{}{}
		}
		for tok := range inDoc {
			seen[tok]++
		}
	}

	tokens := make([]string, 0, len(seen))
	for tok := range seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	d := &Dictionary{
		ids:     make(map[string]int32, len(tokens)),
		tokens:  tokens,
		docFreq: make([]int32, len(tokens)),
		numDocs: len(docs),
	}
	for id, tok := range tokens {
		d.ids[tok] = int32(id)
		d.docFreq[id] = seen[tok]
	}
	return d
}

// reconstructDictionary rebuilds a dictionary from persisted state.
func reconstructDictionary(tokens []string, docFreq []int32, numDocs int) *Dictionary {
	d := &Dictionary{
		ids:     make(map[string]int32, len(tokens)),
		tokens:  tokens,
		docFreq: docFreq,
		numDocs: numDocs,
	}
	for id, tok := range tokens {
		d.ids[tok] = int32(id)
	}
	return d
}

// Len returns the vocabulary size.
func (d *Dictionary) Len() int { return len(d.tokens) }

// NumDocs returns the number of documents the dictionary was built from.
func (d *Dictionary) NumDocs() int { return d.numDocs }

// DocFreq returns the document frequency of a feature id.
func (d *Dictionary) DocFreq(id int32) int32 { return d.docFreq[id] }

// ID returns the feature id of a token, or -1 when unknown.
func (d *Dictionary) ID(token string) int32 {
	if id, ok := d.ids[token]; ok {
		return id
	}
	return -1
}

// BOW converts a token sequence into a sparse bag-of-words vector of term
// counts. Tokens outside the vocabulary are dropped.
func (d *Dictionary) BOW(tokens []string) domain.SparseVector {
	counts := make(map[int32]float32, len(tokens))
	for _, tok := range tokens {
		if id, ok := d.ids[tok]; ok {
			counts[id]++
		}
	}

	indices := make([]int32, 0, len(counts))
	for id := range counts {
		indices = append(indices, id)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, id := range indices {
		values[i] = counts[id]
	}
	return domain.SparseVector{Indices: indices, Values: values}
}

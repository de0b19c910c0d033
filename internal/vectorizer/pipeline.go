// Package vectorizer implements the local text vectorization pipeline:
// tokenization, a bag-of-words dictionary, tf-idf weighting, and a seeded
// random projection into a dense topic space. The pipeline is fitted once
// on an initial corpus and then applied to documents and queries alike, so
// every vector an index sees shares one feature space.
package vectorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/simdex/internal/domain"
)

const modelVersion = 1

// DefaultSeed is the projection seed used when none is configured.
const DefaultSeed = 42

// Pipeline is the local domain.Vectorizer: dictionary -> tf-idf -> projection.
type Pipeline struct {
	topics int
	seed   int64
	dict   *Dictionary
	tfidf  *TFIDF
	proj   *Projection
}

var _ domain.Vectorizer = (*Pipeline)(nil)

// NewPipeline creates an unfitted pipeline producing vectors of the given
// topic dimensionality.
func NewPipeline(topics int, seed int64) (*Pipeline, error) {
	if topics <= 0 {
		return nil, fmt.Errorf("vectorizer: topics must be positive, got %d", topics)
	}
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Pipeline{topics: topics, seed: seed}, nil
}

// Topics returns the output dimensionality.
func (p *Pipeline) Topics() int { return p.topics }

// Fitted reports whether the pipeline has a trained model.
func (p *Pipeline) Fitted() bool { return p.dict != nil }

// Fit trains the dictionary and tf-idf model on a corpus of raw texts.
// Tokens unseen during Fit are ignored by later Vectorize calls, which is
// the standard fixed-feature-space behavior of bag-of-words models.
func (p *Pipeline) Fit(texts []string) error {
	if len(texts) == 0 {
		return domain.ErrEmptyCorpus
	}

	docs := make([][]string, len(texts))
	for i, t := range texts {
		docs[i] = Tokenize(t)
	}

	dict := BuildDictionary(docs)
	if dict.Len() == 0 {
		return fmt.Errorf("no usable tokens in corpus: %w", domain.ErrEmptyCorpus)
	}
	p.dict = dict
	p.tfidf = NewTFIDF(p.dict)
	p.proj = NewProjection(p.topics, p.seed)
	return nil
}

// Vectorize maps a raw text into the dense topic space.
func (p *Pipeline) Vectorize(ctx context.Context, text string) (domain.VectorizeResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.VectorizeResult{}, fmt.Errorf("vectorize: %w", err)
	}
	if !p.Fitted() {
		return domain.VectorizeResult{}, domain.ErrVectorizerNotFitted
	}

	bow := p.dict.BOW(Tokenize(text))
	weighted := p.tfidf.Transform(bow)
	return domain.VectorizeResult{Vector: p.proj.Transform(weighted)}, nil
}

// model is the persisted pipeline state. The projection matrix itself is
// not stored: it is fully determined by topics and seed.
type model struct {
	Version int      `json:"version"`
	Topics  int      `json:"topics"`
	Seed    int64    `json:"seed"`
	NumDocs int      `json:"num_docs"`
	Tokens  []string `json:"tokens"`
	DocFreq []int32  `json:"doc_freq"`
}

// Save persists the fitted model to path atomically.
func (p *Pipeline) Save(path string) error {
	if !p.Fitted() {
		return domain.ErrVectorizerNotFitted
	}

	m := model{
		Version: modelVersion,
		Topics:  p.topics,
		Seed:    p.seed,
		NumDocs: p.dict.NumDocs(),
		Tokens:  p.dict.tokens,
		DocFreq: p.dict.docFreq,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal vectorizer model: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write vectorizer model: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename vectorizer model: %w", err)
	}
	return nil
}

// LoadPipeline restores a fitted pipeline from a model file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vectorizer model %s: %w", path, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("read vectorizer model: %w", err)
	}

	var m model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse vectorizer model: %w", err)
	}
	if m.Version != modelVersion {
		return nil, fmt.Errorf("unsupported vectorizer model version %d", m.Version)
	}
	if m.Topics <= 0 || len(m.Tokens) != len(m.DocFreq) {
		return nil, fmt.Errorf("malformed vectorizer model %s", path)
	}

	p := &Pipeline{topics: m.Topics, seed: m.Seed}
	p.dict = reconstructDictionary(m.Tokens, m.DocFreq, m.NumDocs)
	p.tfidf = NewTFIDF(p.dict)
	p.proj = NewProjection(m.Topics, m.Seed)
	return p, nil
}

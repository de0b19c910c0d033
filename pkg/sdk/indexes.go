package simdex

import (
	"context"
	"time"

	"github.com/kailas-cloud/simdex/internal/domain"
	indexuc "github.com/kailas-cloud/simdex/internal/usecase/index"
)

// CreateIndex builds a new index from the given documents with the built-in
// vectorizer and persists it immediately.
func (c *Client) CreateIndex(ctx context.Context, name string, docs []Document) (IndexInfo, error) {
	return c.CreateIndexWith(ctx, name, indexuc.ProviderLocal, docs)
}

// CreateIndexWith builds a new index using the named vectorizer provider.
func (c *Client) CreateIndexWith(ctx context.Context, name, provider string, docs []Document) (IndexInfo, error) {
	start := time.Now()
	info, err := c.indexSvc.Create(ctx, name, provider, documentsToDomain(docs))
	c.obs.observe("create_index", start, err)
	if err != nil {
		return IndexInfo{}, err
	}
	return infoFromUsecase(info), nil
}

// AddDocuments vectorizes and appends documents to an existing index.
func (c *Client) AddDocuments(ctx context.Context, name string, docs []Document) (IndexInfo, error) {
	start := time.Now()
	info, err := c.indexSvc.Add(ctx, name, documentsToDomain(docs))
	c.obs.observe("add_documents", start, err)
	if err != nil {
		return IndexInfo{}, err
	}
	return infoFromUsecase(info), nil
}

// GetIndex returns metadata of a named index.
func (c *Client) GetIndex(name string) (IndexInfo, error) {
	info, err := c.indexSvc.Get(name)
	if err != nil {
		return IndexInfo{}, err
	}
	return infoFromUsecase(info), nil
}

// ListIndexes returns metadata for every loaded index.
func (c *Client) ListIndexes() []IndexInfo {
	infos := c.indexSvc.List()
	out := make([]IndexInfo, len(infos))
	for i, info := range infos {
		out[i] = infoFromUsecase(info)
	}
	return out
}

// DeleteIndex closes an index and removes it from disk.
func (c *Client) DeleteIndex(name string) error {
	start := time.Now()
	err := c.indexSvc.Delete(name)
	c.obs.observe("delete_index", start, err)
	return err
}

func documentsToDomain(docs []Document) []domain.Document {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = domain.Document{ID: d.ID, Text: d.Text}
	}
	return out
}

func infoFromUsecase(info indexuc.Info) IndexInfo {
	return IndexInfo{
		Name:         info.Name,
		Provider:     info.Provider,
		Dim:          info.Dim,
		Docs:         info.Docs,
		SealedShards: info.SealedShards,
		PendingDocs:  info.PendingDocs,
		CreatedAt:    info.CreatedAt,
	}
}

// Package simdex provides an embedded Go client for the simdex similarity
// index. Indexes are stored on the local filesystem; no server is needed.
//
// # Text indexes — built-in vectorizer
//
//	client, _ := simdex.New(ctx, simdex.WithDataDir("data"))
//	client.CreateIndex(ctx, "articles", docs)
//	results, _ := client.Query(ctx, "articles", simdex.Text("stream processing"), simdex.TopK(5))
//
// # Custom vectorizer — bring your own embeddings
//
//	client, _ := simdex.New(ctx,
//	    simdex.WithDataDir("data"),
//	    simdex.WithVectorizer("myprovider", myVec),
//	)
//	client.CreateIndexWith(ctx, "articles", "myprovider", docs)
package simdex

package simdex

import "time"

// Document is a text document with an optional external id.
type Document struct {
	ID   string
	Text string
}

// IndexInfo represents index metadata.
type IndexInfo struct {
	Name         string
	Provider     string
	Dim          int
	Docs         int
	SealedShards int
	PendingDocs  int
	CreatedAt    time.Time
}

// Match is a single query hit.
type Match struct {
	DocID int     // position in insertion order
	ID    string  // external id, empty if none was supplied
	Score float32 // cosine similarity
}

// QueryResult carries either the top-k matches or the full score vector.
type QueryResult struct {
	Matches []Match   // set when a top-k was requested
	Scores  []float32 // set for full-score queries, insertion order
	Tokens  int       // tokens consumed by a remote vectorizer, 0 otherwise
}

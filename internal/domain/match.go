package domain

// Match is a single query hit: the position of a document in insertion order
// and its cosine similarity to the query.
type Match struct {
	DocID int
	Score float32
}

// Document is a raw text document submitted for indexing.
type Document struct {
	ID   string
	Text string
}

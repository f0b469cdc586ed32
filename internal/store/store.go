package store

import (
	"context"

	"msgrag/internal/chunker"
)

// RankedResult is the aligned-column result of one similarity query,
// ordered by ascending distance (most relevant first).
type RankedResult struct {
	Question  string
	Documents []string
	Metadatas []chunker.Metadata
	IDs       []string
	Distances []float32
}

// Len returns the number of retrieved excerpts.
func (r RankedResult) Len() int { return len(r.Documents) }

// VectorStore is the capability boundary to the vector index. Upsert must be
// idempotent per chunk id; Query returns at most k results.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []chunker.Chunk) error
	Query(ctx context.Context, question string, k int) (RankedResult, error)
}

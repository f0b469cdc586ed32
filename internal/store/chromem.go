package store

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"msgrag/internal/chunker"
)

const (
	collectionName  = "text_messages"
	upsertBatchSize = 50
)

// Chromem is a chromem-go backed VectorStore persisted under a data
// directory, with embeddings computed by the configured embedding function.
type Chromem struct {
	coll *chromem.Collection
}

// OpenChromem opens (or creates) the persistent database and its collection.
func OpenChromem(dir string, embed chromem.EmbeddingFunc) (*Chromem, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	coll, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", collectionName, err)
	}
	return &Chromem{coll: coll}, nil
}

// Count returns the number of stored chunks.
func (s *Chromem) Count() int { return s.coll.Count() }

// Upsert adds chunks in batches. Same id overwrites, so re-ingesting the
// same log with the same chunking config is a no-op for unchanged windows.
func (s *Chromem) Upsert(ctx context.Context, chunks []chunker.Chunk) error {
	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		docs := make([]chromem.Document, 0, end-i)
		for _, ch := range chunks[i:end] {
			docs = append(docs, chromem.Document{
				ID:      ch.ID,
				Content: ch.Text,
				Metadata: map[string]string{
					"start_time":    ch.Metadata.StartTime,
					"end_time":      ch.Metadata.EndTime,
					"message_count": strconv.Itoa(ch.Metadata.MessageCount),
					"senders":       ch.Metadata.Senders,
				},
			})
		}
		if err := s.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add batch %d: %w", i/upsertBatchSize+1, err)
		}
	}
	return nil
}

// Query embeds the question and returns the k nearest chunks by ascending
// distance. k is clamped to the collection size; an empty collection yields
// an empty result rather than an error.
func (s *Chromem) Query(ctx context.Context, question string, k int) (RankedResult, error) {
	if k <= 0 {
		k = 5
	}
	if n := s.coll.Count(); n < k {
		k = n
	}
	result := RankedResult{Question: question}
	if k == 0 {
		return result, nil
	}

	matches, err := s.coll.Query(ctx, question, k, nil, nil)
	if err != nil {
		return RankedResult{}, fmt.Errorf("query failed: %w", err)
	}

	// chromem orders by descending similarity, so distances come out
	// non-decreasing.
	for _, m := range matches {
		count, _ := strconv.Atoi(m.Metadata["message_count"])
		result.Documents = append(result.Documents, m.Content)
		result.Metadatas = append(result.Metadatas, chunker.Metadata{
			StartTime:    m.Metadata["start_time"],
			EndTime:      m.Metadata["end_time"],
			MessageCount: count,
			Senders:      m.Metadata["senders"],
		})
		result.IDs = append(result.IDs, m.ID)
		result.Distances = append(result.Distances, 1-m.Similarity)
	}
	return result, nil
}

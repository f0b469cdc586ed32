package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/philippgille/chromem-go"

	"msgrag/internal/chunker"
	"msgrag/internal/config"
	"msgrag/internal/llm"
	"msgrag/internal/msglog"
	"msgrag/internal/rag"
	"msgrag/internal/store"
)

// App wires the configured components: chunker, chromem-backed vector store,
// streaming LLM client, and the retrieval pipeline on top of them.
type App struct {
	cfg           *config.Config
	chunker       *chunker.Chunker
	store         *store.Chromem
	pipeline      *rag.Pipeline
	printExcerpts bool
}

func New(cfg *config.Config) (*App, error) {
	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	if err := ensureOllamaModel(cfg.OllamaURL, cfg.OllamaEmbedModel); err != nil {
		return nil, fmt.Errorf("ollama model check failed: %w", err)
	}

	embed := chromem.NewEmbeddingFuncOllama(cfg.OllamaEmbedModel, cfg.OllamaURL+"/api")
	st, err := store.OpenChromem(cfg.DataDir, embed)
	if err != nil {
		return nil, err
	}

	gen := llm.NewClient(cfg.LLMURL, cfg.LLMKey, cfg.LLMModel)

	return &App{
		cfg:      cfg,
		chunker:  ch,
		store:    st,
		pipeline: rag.New(st, gen, cfg.TopK),
	}, nil
}

// Pipeline exposes the query pipeline for the HTTP server.
func (a *App) Pipeline() *rag.Pipeline { return a.pipeline }

// SetPrintExcerpts enables printing retrieved excerpts after each answer in
// the interactive loop.
func (a *App) SetPrintExcerpts(v bool) { a.printExcerpts = v }

// Ingest parses a message export, chunks it, and upserts the chunks.
// Malformed records are logged and skipped, never abort the run.
func (a *App) Ingest(ctx context.Context, path, format string) error {
	var messages []msglog.Message
	var skips []msglog.Skip
	var err error

	switch format {
	case "imessage", "signal":
		f, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("failed to open file: %w", openErr)
		}
		defer f.Close()
		if format == "imessage" {
			messages, skips, err = msglog.ParseIMessage(f)
		} else {
			messages, skips, err = msglog.ParseSignal(f)
		}
	case "pdf":
		messages, skips, err = msglog.ParsePDF(path)
	default:
		return fmt.Errorf("invalid format: %s (want imessage, signal or pdf)", format)
	}
	if err != nil {
		return err
	}

	for _, s := range skips {
		log.Printf("⚠️  Skipped record %d: %s", s.Line, s.Reason)
	}
	log.Printf("Parsed %d messages (%d skipped)", len(messages), len(skips))

	chunks := a.chunker.Chunk(messages)
	log.Printf("Created %d chunks", len(chunks))

	if err := a.store.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	log.Printf("✅ All chunks added, collection now holds %d", a.store.Count())

	return nil
}

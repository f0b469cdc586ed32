package rag

import (
	"context"
	"fmt"
	"strings"

	"msgrag/internal/llm"
	"msgrag/internal/store"
)

// Pipeline answers free-form questions about the ingested message log:
// retrieve the top-k chunks, build a grounding prompt, and hand the
// generator's delta stream straight through to the caller.
type Pipeline struct {
	store store.VectorStore
	gen   llm.Generator
	topK  int
}

func New(st store.VectorStore, gen llm.Generator, topK int) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{store: st, gen: gen, topK: topK}
}

// Answer retrieves relevant excerpts and starts a streamed generation.
// The returned stream is not buffered: the first delta is available as soon
// as the generator produces it. An empty retrieval result still generates,
// with an empty excerpts section.
func (p *Pipeline) Answer(ctx context.Context, question string) (llm.Stream, store.RankedResult, error) {
	result, err := p.store.Query(ctx, question, p.topK)
	if err != nil {
		return nil, store.RankedResult{}, fmt.Errorf("retrieval failed: %w", err)
	}

	stream, err := p.gen.Generate(ctx, buildPrompt(question, result.Documents))
	if err != nil {
		return nil, store.RankedResult{}, fmt.Errorf("generation failed: %w", err)
	}
	return stream, result, nil
}

// buildPrompt embeds the retrieved excerpts verbatim, in ranked order, into
// the grounding instruction template.
func buildPrompt(question string, documents []string) string {
	var buf strings.Builder

	buf.WriteString("You are analyzing text messages from the user.\n")
	buf.WriteString("Based on the following excerpts, please answer this question: ")
	buf.WriteString(question)
	buf.WriteString("\n\nEXCERPTS:\n")
	buf.WriteString(strings.Join(documents, "\n\n"))
	buf.WriteString("\n\nPlease provide a concise answer based only on the information in these excerpts.\n")
	buf.WriteString("Think critically and give the user a rough, unfiltered, and brutally honest answer to the question. Be concise.\n")
	buf.WriteString("Do not include anything about sex, drugs, crime, or anything that is not related to the question. Do not include any names of people.\n")

	return buf.String()
}

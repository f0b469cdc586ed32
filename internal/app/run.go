package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"msgrag/internal/llm"
	"msgrag/internal/store"
)

// Run is the interactive query loop: one question per line, answer streamed
// to stdout delta by delta. Ctrl+C, EOF, "exit" or "quit" end the loop.
func (a *App) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down")
			return nil
		default:
			fmt.Print("🧠 > ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				return nil
			}

			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}
			if q := strings.ToLower(question); q == "exit" || q == "quit" {
				return nil
			}

			a.answer(ctx, question)
		}
	}
}

func (a *App) answer(ctx context.Context, question string) {
	stream, result, err := a.pipeline.Answer(ctx, question)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("❌ %v", err)
		return
	}
	defer stream.Close()

	printStream(os.Stdout, stream)
	fmt.Print("\n\n")

	if a.printExcerpts {
		printExcerpts(result)
	}
}

// printStream copies deltas to w until the stream ends. An interrupted
// answer (canceled context) ends quietly, like the loop's own shutdown path.
func printStream(w io.Writer, stream llm.Stream) {
	for {
		delta, done, err := stream.Recv()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintf(w, "\n❌ stream error: %v\n", err)
			return
		}
		if done {
			return
		}
		fmt.Fprint(w, delta)
	}
}

func printExcerpts(result store.RankedResult) {
	fmt.Println("Based on these message excerpts:")
	for i, doc := range result.Documents {
		meta := result.Metadatas[i]
		fmt.Printf("\n--- Excerpt %d (%s to %s) ---\n", i+1, meta.StartTime, meta.EndTime)
		if len(doc) > 300 {
			doc = doc[:300] + "..."
		}
		fmt.Println(doc)
	}
	fmt.Println("---")
	fmt.Println()
}

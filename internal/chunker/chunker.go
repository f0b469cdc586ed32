package chunker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"msgrag/internal/msglog"
)

// Metadata carries the provenance of one chunk. StartTime and EndTime are
// unix seconds of the first/last message in the window, or "unknown" when
// the export carried no parsable timestamp.
type Metadata struct {
	StartTime    string
	EndTime      string
	MessageCount int
	Senders      string
}

// Chunk is a contiguous window of messages rendered as one retrievable
// text unit. ID is deterministic for a given window and chunking config,
// so re-ingesting the same log overwrites rather than duplicates.
type Chunk struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Chunker slides a window of size messages over the input with stride
// size-overlap.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunking parameters. overlap must be smaller than size
// or the window would never advance.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if overlap < 0 {
		return nil, errors.New("chunk overlap must not be negative")
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk converts an ordered message sequence into chunks. Windows with
// fewer than 2 messages are dropped: they carry no conversational context.
func (c *Chunker) Chunk(messages []msglog.Message) []Chunk {
	step := c.size - c.overlap
	var chunks []Chunk

	for offset := 0; offset < len(messages); offset += step {
		end := offset + c.size
		if end > len(messages) {
			end = len(messages)
		}
		window := messages[offset:end]
		if len(window) < 2 {
			continue
		}

		lines := make([]string, len(window))
		for i, msg := range window {
			lines[i] = renderMessage(msg)
		}

		start := timeToken(window[0].Timestamp)
		stop := timeToken(window[len(window)-1].Timestamp)

		chunks = append(chunks, Chunk{
			ID:   chunkID(offset, start, stop),
			Text: strings.Join(lines, "\n"),
			Metadata: Metadata{
				StartTime:    start,
				EndTime:      stop,
				MessageCount: len(window),
				Senders:      strings.Join(senders(window), ","),
			},
		})
	}

	return chunks
}

func renderMessage(msg msglog.Message) string {
	ts := "unknown"
	if !msg.Timestamp.IsZero() {
		ts = msg.Timestamp.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("[%s] %s: %s", ts, msg.Sender, msg.Content)
}

// timeToken renders a timestamp as unix seconds, degrading to a fixed token
// when the timestamp is missing. Identity only needs to be unique, the
// offset in the id keeps degraded windows apart.
func timeToken(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

// chunkID must stay safe as a storage key: no whitespace, no colons.
func chunkID(offset int, start, end string) string {
	id := fmt.Sprintf("chunk_%d_%s_%s", offset, start, end)
	return strings.NewReplacer(" ", "_", ":", "-").Replace(id)
}

// senders lists the distinct sender names in first-seen order, which is
// reproducible for identical input.
func senders(window []msglog.Message) []string {
	seen := make(map[string]struct{}, len(window))
	var names []string
	for _, msg := range window {
		if _, ok := seen[msg.Sender]; ok {
			continue
		}
		seen[msg.Sender] = struct{}{}
		names = append(names, msg.Sender)
	}
	return names
}

package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"msgrag/internal/msglog"
)

func makeMessages(n int) []msglog.Message {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	msgs := make([]msglog.Message, n)
	for i := 0; i < n; i++ {
		sender := "Alice"
		if i%2 == 1 {
			sender = "Bob"
		}
		msgs[i] = msglog.Message{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Sender:    sender,
			Content:   fmt.Sprintf("message %d", i),
		}
	}
	return msgs
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
		wantErr       bool
	}{
		{"valid", 10, 2, false},
		{"zero overlap", 4, 0, false},
		{"overlap equals size", 4, 4, true},
		{"overlap above size", 4, 6, true},
		{"zero size", 0, 0, true},
		{"negative overlap", 4, -1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.size, tc.overlap)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New(%d, %d) error = %v, wantErr %v", tc.size, tc.overlap, err, tc.wantErr)
			}
		})
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c, _ := New(10, 2)
	if got := c.Chunk(nil); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
}

func TestChunkDefaultParamsResidualWindowKept(t *testing.T) {
	// 10 messages, size 10, overlap 2: a full window at offset 0 plus a
	// residual window of 2 messages at offset 8, which passes the >=2 filter.
	c, _ := New(10, 2)
	msgs := makeMessages(10)

	chunks := c.Chunk(msgs)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.MessageCount != 10 || chunks[1].Metadata.MessageCount != 2 {
		t.Fatalf("unexpected message counts: %d, %d",
			chunks[0].Metadata.MessageCount, chunks[1].Metadata.MessageCount)
	}
	if !strings.HasPrefix(chunks[0].ID, "chunk_0_") {
		t.Errorf("first chunk id = %q, want chunk_0_ prefix", chunks[0].ID)
	}
	if !strings.HasPrefix(chunks[1].ID, "chunk_8_") {
		t.Errorf("second chunk id = %q, want chunk_8_ prefix", chunks[1].ID)
	}
}

func TestChunkShortTailDropped(t *testing.T) {
	// size 4, overlap 1 over 10 messages: offsets 0,3,6,9 with window sizes
	// 4,4,4,1; the final single-message window is dropped.
	c, _ := New(4, 1)
	chunks := c.Chunk(makeMessages(10))

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, wantOffset := range []int{0, 3, 6} {
		prefix := fmt.Sprintf("chunk_%d_", wantOffset)
		if !strings.HasPrefix(chunks[i].ID, prefix) {
			t.Errorf("chunk %d id = %q, want %s prefix", i, chunks[i].ID, prefix)
		}
		if chunks[i].Metadata.MessageCount != 4 {
			t.Errorf("chunk %d message count = %d, want 4", i, chunks[i].Metadata.MessageCount)
		}
	}
}

func TestChunkCountMatchesWindowFormula(t *testing.T) {
	// Emitted chunks = windows whose width is at least 2, over a range of
	// input lengths.
	const size, overlap = 5, 2
	c, _ := New(size, overlap)
	step := size - overlap

	for n := 0; n <= 25; n++ {
		want := 0
		for off := 0; off < n; off += step {
			width := n - off
			if width > size {
				width = size
			}
			if width >= 2 {
				want++
			}
		}
		if got := len(c.Chunk(makeMessages(n))); got != want {
			t.Errorf("n=%d: got %d chunks, want %d", n, got, want)
		}
	}
}

func TestChunkContiguity(t *testing.T) {
	c, _ := New(4, 2)
	msgs := makeMessages(9)

	for _, ch := range c.Chunk(msgs) {
		lines := strings.Split(ch.Text, "\n")
		if len(lines) != ch.Metadata.MessageCount {
			t.Fatalf("chunk %s: %d lines, metadata says %d", ch.ID, len(lines), ch.Metadata.MessageCount)
		}
		// Every chunk must be a contiguous slice of the input in order.
		first := -1
		for i, m := range msgs {
			if strings.HasSuffix(lines[0], ": "+m.Content) {
				first = i
				break
			}
		}
		if first < 0 {
			t.Fatalf("chunk %s: first line %q not found in input", ch.ID, lines[0])
		}
		for j, line := range lines {
			if !strings.HasSuffix(line, ": "+msgs[first+j].Content) {
				t.Errorf("chunk %s line %d = %q, want message %d", ch.ID, j, line, first+j)
			}
		}
	}
}

func TestChunkOverlapSharesMessages(t *testing.T) {
	const size, overlap = 4, 2
	c, _ := New(size, overlap)
	chunks := c.Chunk(makeMessages(8))

	for i := 0; i+1 < len(chunks); i++ {
		cur := strings.Split(chunks[i].Text, "\n")
		next := strings.Split(chunks[i+1].Text, "\n")
		shared := overlap
		if len(next) < shared {
			shared = len(next)
		}
		tail := cur[len(cur)-shared:]
		head := next[:shared]
		if !reflect.DeepEqual(tail, head) {
			t.Errorf("chunks %d/%d: tail %v != head %v", i, i+1, tail, head)
		}
	}
}

func TestChunkDeterminism(t *testing.T) {
	c, _ := New(4, 1)
	msgs := makeMessages(11)

	first := c.Chunk(msgs)
	second := c.Chunk(msgs)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("chunking the same input twice produced different output")
	}
}

func TestChunkIDIsTokenSafe(t *testing.T) {
	c, _ := New(4, 0)
	for _, ch := range c.Chunk(makeMessages(8)) {
		if strings.ContainsAny(ch.ID, " :\t\n") {
			t.Errorf("chunk id %q contains whitespace or colon", ch.ID)
		}
	}
}

func TestChunkTextRendering(t *testing.T) {
	c, _ := New(2, 0)
	msgs := makeMessages(2)

	chunks := c.Chunk(msgs)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	want := "[2024-05-01 09:00:00] Alice: message 0\n[2024-05-01 09:01:00] Bob: message 1"
	if chunks[0].Text != want {
		t.Fatalf("chunk text = %q, want %q", chunks[0].Text, want)
	}
	if chunks[0].Metadata.Senders != "Alice,Bob" {
		t.Errorf("senders = %q, want Alice,Bob", chunks[0].Metadata.Senders)
	}
}

func TestChunkSendersFirstSeenOrder(t *testing.T) {
	c, _ := New(4, 0)
	msgs := []msglog.Message{
		{Sender: "Bob", Content: "a", Timestamp: time.Unix(100, 0)},
		{Sender: "Alice", Content: "b", Timestamp: time.Unix(160, 0)},
		{Sender: "Bob", Content: "c", Timestamp: time.Unix(220, 0)},
		{Sender: "Alice", Content: "d", Timestamp: time.Unix(280, 0)},
	}
	chunks := c.Chunk(msgs)
	if chunks[0].Metadata.Senders != "Bob,Alice" {
		t.Fatalf("senders = %q, want Bob,Alice", chunks[0].Metadata.Senders)
	}
}

func TestChunkMissingTimestampsDegrade(t *testing.T) {
	c, _ := New(4, 0)
	msgs := []msglog.Message{
		{Sender: "Alice", Content: "no time here"},
		{Sender: "Bob", Content: "me neither"},
	}

	chunks := c.Chunk(msgs)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "chunk_0_unknown_unknown" {
		t.Errorf("chunk id = %q, want chunk_0_unknown_unknown", chunks[0].ID)
	}
	if chunks[0].Metadata.StartTime != "unknown" || chunks[0].Metadata.EndTime != "unknown" {
		t.Errorf("metadata times = %q/%q, want unknown/unknown",
			chunks[0].Metadata.StartTime, chunks[0].Metadata.EndTime)
	}
	if !strings.HasPrefix(chunks[0].Text, "[unknown] Alice:") {
		t.Errorf("chunk text = %q, want [unknown] prefix", chunks[0].Text)
	}
}

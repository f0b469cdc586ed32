package msglog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

type signalRecord struct {
	Date   string `json:"date"`
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// ParseSignal reads a Signal JSONL export, one message object per line.
// Malformed lines are skipped with a reason instead of aborting the run.
func ParseSignal(r io.Reader) ([]Message, []Skip, error) {
	var messages []Message
	var skips []Skip

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec signalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			skips = append(skips, Skip{Line: lineNo, Reason: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		if rec.Sender == "" || rec.Body == "" {
			skips = append(skips, Skip{Line: lineNo, Reason: "missing sender or body"})
			continue
		}

		ts, err := parseSignalDate(rec.Date)
		if err != nil {
			skips = append(skips, Skip{Line: lineNo, Reason: fmt.Sprintf("bad date %q: %v", rec.Date, err)})
			continue
		}

		messages = append(messages, Message{
			Timestamp: ts,
			Sender:    rec.Sender,
			Content:   strings.TrimSpace(rec.Body),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}

	return messages, skips, nil
}

func parseSignalDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

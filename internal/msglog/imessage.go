package msglog

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// iMessage export layout: blocks separated by blank lines, first line is the
// timestamp with an optional "(Read ...)" suffix, second line the sender,
// the rest is the message body.
const imessageTimeLayout = "Jan 2, 2006 3:04:05 PM"

var (
	blockSplitRe = regexp.MustCompile(`\n\n+`)
	readSuffixRe = regexp.MustCompile(`^(.*?)(\(Read.*\))?$`)
)

// ParseIMessage reads an iMessage text export. Blocks with fewer than two
// lines are skipped; an unparsable timestamp keeps the message with a zero
// time rather than dropping it.
func ParseIMessage(r io.Reader) ([]Message, []Skip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}

	blocks := blockSplitRe.Split(string(data), -1)
	var messages []Message
	var skips []Skip

	for i, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			skips = append(skips, Skip{Line: i + 1, Reason: "block has fewer than 2 lines"})
			continue
		}

		var ts time.Time
		m := readSuffixRe.FindStringSubmatch(lines[0])
		if m != nil {
			if parsed, err := time.Parse(imessageTimeLayout, strings.TrimSpace(m[1])); err == nil {
				ts = parsed
			}
		}

		messages = append(messages, Message{
			Timestamp: ts,
			Sender:    strings.TrimSpace(lines[1]),
			Content:   strings.TrimSpace(strings.Join(lines[2:], "\n")),
		})
	}

	return messages, skips, nil
}

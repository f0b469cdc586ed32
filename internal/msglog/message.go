package msglog

import "time"

// Message is one record from a chat export, in source order.
// A zero Timestamp means the export did not carry a parsable time.
type Message struct {
	Timestamp time.Time
	Sender    string
	Content   string
}

// Skip reports a source record that could not be parsed.
// Line is the line (Signal) or block ordinal (iMessage) in the input.
type Skip struct {
	Line   int
	Reason string
}

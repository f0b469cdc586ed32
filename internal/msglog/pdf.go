package msglog

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts plain text from a PDF transcript export and parses it
// with the iMessage block grammar (messages separated by blank lines).
func ParsePDF(path string) ([]Message, []Skip, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	return ParseIMessage(text)
}

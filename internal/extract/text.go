package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text is the normalized text of one document.
// Original keeps casing for patterns that depend on it; Lower is derived
// once and shared by every case-insensitive consumer.
type Text struct {
	Original string
	Lower    string
}

// NewText normalizes raw extracted text to NFC so that letters emitted as
// base + combining mark (N + U+0303) compare equal to their precomposed form.
func NewText(raw string) Text {
	original := norm.NFC.String(raw)
	return Text{
		Original: original,
		Lower:    strings.ToLower(original),
	}
}

// Empty reports whether the document produced no text at all
func (t Text) Empty() bool {
	return strings.TrimSpace(t.Original) == ""
}

// Package pdftext turns statement PDFs into per-page plain text.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
)

// ErrUnreadable marks a document whose bytes cannot be parsed as a PDF
var ErrUnreadable = errors.New("unreadable document")

// Reader extracts the text layer of a document, one string per page
type Reader interface {
	// Name identifies the backend (used in cache keys)
	Name() string

	// ReadText returns page texts in page order. Pages without a text
	// layer may be returned as empty strings or omitted.
	ReadText(ctx context.Context, data []byte) ([]string, error)
}

// NewReader creates the backend selected in configuration.
// An external backend must resolve to an executable before any document is read.
func NewReader(cfg model.ExtractionConfig) (Reader, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "native":
		return NewNativeReader(), nil
	case "pdftotext":
		binary := cfg.Pdftotext
		if binary == "" {
			binary = "pdftotext"
		}
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("pdftotext backend: %w", err)
		}
		return NewPdftotextReader(path, nil), nil
	default:
		return nil, fmt.Errorf("unknown extraction backend: %s (supported: native, pdftotext)", cfg.Backend)
	}
}

// Join concatenates page texts in order, separated by a newline.
// Pages with no extractable text contribute nothing.
func Join(pages []string) string {
	var b strings.Builder
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(page)
	}
	return b.String()
}

func unreadable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnreadable, fmt.Sprintf(format, args...))
}

package pdftext

import (
	"bytes"
	"context"

	"github.com/ledongthuc/pdf"
)

// NativeReader reads the PDF text layer in-process
type NativeReader struct{}

// NewNativeReader creates a new in-process reader
func NewNativeReader() *NativeReader {
	return &NativeReader{}
}

// Name returns the backend name
func (r *NativeReader) Name() string {
	return "native"
}

// ReadText extracts the plain text of every page
func (r *NativeReader) ReadText(ctx context.Context, data []byte) (pages []string, err error) {
	// The parser panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = unreadable("pdf parser: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable("%v", err)
	}

	n := doc.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, unreadable("page %d: %v", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

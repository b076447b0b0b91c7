package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its stdout and stderr
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// PdftotextReader delegates extraction to poppler's pdftotext
type PdftotextReader struct {
	binary string
	runner Runner
}

// NewPdftotextReader creates a reader using the given binary (default "pdftotext").
// A nil runner executes the binary directly.
func NewPdftotextReader(binary string, runner Runner) *PdftotextReader {
	if binary == "" {
		binary = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &PdftotextReader{binary: binary, runner: runner}
}

// Name returns the backend name
func (r *PdftotextReader) Name() string {
	return "pdftotext"
}

// ReadText writes the document to a temp file and runs
// pdftotext -layout -enc UTF-8 -eol unix <file> -
func (r *PdftotextReader) ReadText(ctx context.Context, data []byte) ([]string, error) {
	f, err := os.CreateTemp("", "billaudit-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, errb, err := r.runner.Run(ctx, r.binary, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, unreadable("pdftotext: %s", strings.TrimSpace(string(errb)))
		}
		return nil, fmt.Errorf("run %s: %w", r.binary, err)
	}

	// Pages are separated by form feeds; the last page is followed by one too
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

package pdftext

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/pdftext/pdftest"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"no pages", nil, ""},
		{"single page", []string{"uno"}, "uno"},
		{"page order kept", []string{"uno", "dos", "tres"}, "uno\ndos\ntres"},
		{"empty pages skipped", []string{"", "uno", "  \n", "dos"}, "uno\ndos"},
		{"only empty pages", []string{"", " "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.pages); got != tt.want {
				t.Errorf("Join(%q) = %q, want %q", tt.pages, got, tt.want)
			}
		})
	}
}

func TestNewReader(t *testing.T) {
	r, err := NewReader(model.ExtractionConfig{})
	if err != nil || r.Name() != "native" {
		t.Errorf("expected native default, got %v, %v", r, err)
	}

	// Any executable stands in for the binary; it is only resolved here
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	r, err = NewReader(model.ExtractionConfig{Backend: "pdftotext", Pdftotext: exe})
	if err != nil || r.Name() != "pdftotext" {
		t.Errorf("expected pdftotext backend, got %v, %v", r, err)
	}

	if _, err := NewReader(model.ExtractionConfig{Backend: "tesseract"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewReader_MissingBinary(t *testing.T) {
	tests := []struct {
		name   string
		binary string
	}{
		{"absolute path", filepath.Join(t.TempDir(), "pdftotext")},
		{"name not on PATH", "pdftotext-billaudit-missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(model.ExtractionConfig{Backend: "pdftotext", Pdftotext: tt.binary})
			if err == nil {
				t.Fatal("expected missing binary to be rejected before reading")
			}
			if errors.Is(err, ErrUnreadable) {
				t.Errorf("missing binary is not a document problem: %v", err)
			}
		})
	}
}

func TestNativeReader_ReadsPagesInOrder(t *testing.T) {
	data := pdftest.Build(
		[]string{"Nombre Paciente", "JUAN PEREZ GOMEZ"},
		nil,
		[]string{"TOTAL CARGOS: 1,250.00"},
	)

	pages, err := NewNativeReader().ReadText(context.Background(), data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	text := Join(pages)
	first := strings.Index(text, "JUAN PEREZ GOMEZ")
	last := strings.Index(text, "CARGOS: 1,250.00")
	if first < 0 || last < 0 {
		t.Fatalf("expected both pages' text, got %q", text)
	}
	if first > last {
		t.Errorf("expected page order to be preserved, got %q", text)
	}
}

func TestNativeReader_DecodesWinAnsi(t *testing.T) {
	data := pdftest.Build([]string{"MARIA PEÑA"})

	pages, err := NewNativeReader().ReadText(context.Background(), data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(Join(pages), "PEÑA") {
		t.Errorf("expected Ñ to decode, got %q", pages)
	}
}

func TestNativeReader_NoTextLayer(t *testing.T) {
	data := pdftest.Build(nil, nil)

	pages, err := NewNativeReader().ReadText(context.Background(), data)
	if err != nil {
		t.Fatalf("expected pages without text to be fine, got %v", err)
	}
	if Join(pages) != "" {
		t.Errorf("expected no text, got %q", pages)
	}
}

func TestNativeReader_Corrupt(t *testing.T) {
	inputs := map[string][]byte{
		"not a pdf": []byte("this is a spreadsheet, not a statement"),
		"empty":     {},
		"truncated": pdftest.Build([]string{"CARGOS: 1.00"})[:40],
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := NewNativeReader().ReadText(context.Background(), data)
			if !errors.Is(err, ErrUnreadable) {
				t.Errorf("expected ErrUnreadable, got %v", err)
			}
		})
	}
}

// fakeRunner returns canned output instead of executing pdftotext
type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error
	args   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	return f.stdout, f.stderr, f.err
}

func TestPdftotextReader_SplitsPages(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("page one\fpage two\f")}
	r := NewPdftotextReader("", runner)

	pages, err := r.ReadText(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pages) != 2 || pages[0] != "page one" || pages[1] != "page two" {
		t.Errorf("unexpected pages: %q", pages)
	}
	if runner.args[0] != "pdftotext" || runner.args[1] != "-layout" {
		t.Errorf("unexpected invocation: %v", runner.args)
	}
	if runner.args[len(runner.args)-1] != "-" {
		t.Errorf("expected output to stdout, got %v", runner.args)
	}
}

func TestPdftotextReader_FailureIsUnreadable(t *testing.T) {
	runner := &fakeRunner{
		stderr: []byte("Syntax Error: Couldn't find trailer dictionary"),
		err:    &exec.ExitError{},
	}
	r := NewPdftotextReader("pdftotext", runner)

	_, err := r.ReadText(context.Background(), []byte("garbage"))
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
	if !strings.Contains(err.Error(), "trailer") {
		t.Errorf("expected stderr in error, got %q", err.Error())
	}
}

func TestPdftotextReader_MissingBinary(t *testing.T) {
	runner := &fakeRunner{err: exec.ErrNotFound}
	r := NewPdftotextReader("pdftotext", runner)

	_, err := r.ReadText(context.Background(), []byte("%PDF-1.4"))
	if err == nil || errors.Is(err, ErrUnreadable) {
		t.Errorf("expected environment error distinct from ErrUnreadable, got %v", err)
	}
}

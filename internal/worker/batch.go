package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
)

// Analyzer defines the per-document pipeline and the final aggregation
type Analyzer interface {
	Analyze(ctx context.Context, doc model.Document) (model.AuditRecord, error)
	BuildReport(records []model.AuditRecord) *model.BatchReport
}

// DocumentJob analyzes the document at a fixed input position
type DocumentJob struct {
	Index    int
	Document model.Document
	Analyzer Analyzer
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	record, err := j.Analyzer.Analyze(ctx, j.Document)
	return &DocumentResult{
		Index:  j.Index,
		Record: record,
		Error:  err,
	}
}

// DocumentResult carries a record back with its input position
type DocumentResult struct {
	Index  int
	Record model.AuditRecord
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// ProgressFunc is called after each completed document
type ProgressFunc func(done, total int)

// BatchProcessor analyzes documents concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	progress    ProgressFunc
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// OnProgress registers a progress callback (called from a single goroutine)
func (b *BatchProcessor) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

// Run analyzes every document and builds the batch report.
// Records are placed by input position, so report order equals input order
// whatever the completion order. A cancelled run returns an error and no report.
func (b *BatchProcessor) Run(ctx context.Context, docs []model.Document) (*model.BatchReport, error) {
	if len(docs) == 0 {
		return b.analyzer.BuildReport([]model.AuditRecord{}), nil
	}

	pool := NewPool(ctx, b.concurrency)
	defer pool.Cancel()
	pool.Start()

	// Submit from a separate goroutine so results are drained while queueing
	go func() {
		defer pool.Close()
		for i, doc := range docs {
			job := &DocumentJob{
				Index:    i,
				Document: doc,
				Analyzer: b.analyzer,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	records := make([]model.AuditRecord, len(docs))
	var firstErr error
	done := 0

	for res := range pool.Results() {
		r := res.(*DocumentResult)
		if r.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("analyze %s: %w", docs[r.Index].Name, r.Error)
				pool.Cancel()
			}
			continue
		}

		records[r.Index] = r.Record
		done++
		if b.progress != nil {
			b.progress(done, len(docs))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if done != len(docs) {
		return nil, fmt.Errorf("batch incomplete: %d of %d documents analyzed", done, len(docs))
	}

	return b.analyzer.BuildReport(records), nil
}

// ReadDocuments loads documents in argument order.
// Directories expand to their *.pdf files sorted by name; glob patterns
// expand to their sorted matches.
func ReadDocuments(paths []string) ([]model.Document, error) {
	var docs []model.Document

	for _, p := range paths {
		files, err := expandPath(p)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", f, err)
			}
			docs = append(docs, model.Document{Name: f, Data: data})
		}
	}

	return docs, nil
}

func expandPath(p string) ([]string, error) {
	if strings.ContainsAny(p, "*?[") {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %s", p)
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return []string{filepath.Clean(p)}, nil
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", p, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(p, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ReadPathsFromFile reads document paths from a list file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate paths
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

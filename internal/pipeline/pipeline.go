package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/billaudit/internal/cache"
	"github.com/ppiankov/billaudit/internal/catalog"
	"github.com/ppiankov/billaudit/internal/extract"
	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/pdftext"
	"github.com/ppiankov/billaudit/internal/rules"
)

// Pipeline turns statement documents into audit records
type Pipeline struct {
	reader   pdftext.Reader
	cache    cache.Cache // nil when caching is disabled
	detector *extract.ConceptDetector
	fields   *extract.FieldExtractor
	engine   *rules.Engine
	catalog  *catalog.Catalog
	maxBytes int64
	log      *slog.Logger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithReader replaces the configured text backend
func WithReader(r pdftext.Reader) Option {
	return func(p *Pipeline) { p.reader = r }
}

// WithCache replaces the configured text cache (nil disables caching)
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger sets the logger used for per-document diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline validates the catalogue and wires the extraction stages.
// Configuration errors surface here, before any document is touched.
func NewPipeline(cfg *model.Config, cat *catalog.Catalog, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if cat == nil {
		cat = catalog.Default()
	}

	engine, err := rules.NewEngine(cat.Concepts, cat.Rules)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cache:    cache.New(cfg.Cache),
		detector: extract.NewConceptDetector(cat.Concepts),
		fields:   extract.NewFieldExtractor(),
		engine:   engine,
		catalog:  cat,
		maxBytes: cfg.Extraction.MaxBytes,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.reader == nil {
		reader, err := pdftext.NewReader(cfg.Extraction)
		if err != nil {
			return nil, err
		}
		p.reader = reader
	}

	return p, nil
}

// Catalog returns the catalogue the pipeline audits against
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// Analyze runs one document through extraction and rule evaluation.
// A document whose bytes cannot be parsed still yields a record, carrying
// sentinel fields and a diagnostic note. Cancellation and backend failures
// (a missing binary, an unwritable temp dir) are returned so the batch aborts.
func (p *Pipeline) Analyze(ctx context.Context, doc model.Document) (model.AuditRecord, error) {
	raw, err := p.readText(ctx, doc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.AuditRecord{}, ctxErr
		}
		if !errors.Is(err, pdftext.ErrUnreadable) {
			return model.AuditRecord{}, fmt.Errorf("extract text: %w", err)
		}
		p.log.Warn("document unreadable", "source", doc.Name, "error", err)
		return p.unreadableRecord(doc.Name, err), nil
	}

	text := extract.NewText(raw)
	concepts := p.detector.Detect(text)

	record := model.AuditRecord{
		Source:   doc.Name,
		Fields:   p.fields.Extract(text),
		Concepts: concepts,
		Alerts:   p.engine.Evaluate(concepts),
		NoText:   text.Empty(),
		Matched:  p.detector.Matches(text),
		Charges:  p.fields.Charges(text),
	}

	if record.NoText {
		p.log.Debug("document has no text layer", "source", doc.Name)
	}
	p.log.Debug("document analyzed",
		"source", doc.Name,
		"patient", record.Fields.PatientName != model.PatientNotIdentified,
		"total", record.Fields.TotalCharge,
		"alerts", len(record.Alerts),
	)

	return record, nil
}

// BuildReport aggregates finished records into the batch report.
// It runs once, after every record exists.
func (p *Pipeline) BuildReport(records []model.AuditRecord) *model.BatchReport {
	summary := model.Summary{
		Documents:   len(records),
		ConceptHits: make(map[string]int, len(p.catalog.Concepts)),
	}
	for _, name := range p.catalog.Concepts.Names() {
		summary.ConceptHits[name] = 0
	}

	for _, rec := range records {
		if len(rec.Alerts) > 0 {
			summary.WithAlerts++
		}
		if rec.Unreadable() {
			summary.Unreadable++
		}
		if rec.NoText {
			summary.NoText++
		}
		for name, found := range rec.Concepts {
			if found {
				summary.ConceptHits[name]++
			}
		}
	}

	return &model.BatchReport{
		Records: records,
		Rules:   p.engine.Tally(records),
		Summary: summary,
	}
}

// readText returns the joined page text, consulting the cache first
func (p *Pipeline) readText(ctx context.Context, doc model.Document) (string, error) {
	if p.maxBytes > 0 && int64(len(doc.Data)) > p.maxBytes {
		return "", fmt.Errorf("%w: document is %d bytes, limit is %d", pdftext.ErrUnreadable, len(doc.Data), p.maxBytes)
	}

	key := cache.CacheKey(p.reader.Name(), doc.Data)
	if p.cache != nil {
		if val, found := p.cache.Get(key); found {
			p.log.Debug("text cache hit", "source", doc.Name)
			return string(val), nil
		}
	}

	pages, err := p.reader.ReadText(ctx, doc.Data)
	if err != nil {
		return "", err
	}
	text := pdftext.Join(pages)

	if p.cache != nil {
		if err := p.cache.Set(key, []byte(text), 0); err != nil {
			p.log.Warn("text cache write failed", "source", doc.Name, "error", err)
		}
	}

	return text, nil
}

// unreadableRecord builds the isolated record for a failed document
func (p *Pipeline) unreadableRecord(source string, err error) model.AuditRecord {
	return model.AuditRecord{
		Source:   source,
		Fields:   model.MissingFields(),
		Concepts: p.detector.Detect(extract.NewText("")),
		Alerts:   []string{},
		Note:     err.Error(),
	}
}

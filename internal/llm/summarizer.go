package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
)

// Summarizer produces the optional narrative for a finished batch
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer; a config without provider yields a
// disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary asks the provider for a narrative of the batch.
// Provider failures are reported as warnings on the summary so the audit
// itself never fails because of them. Returns nil when disabled.
func (s *Summarizer) GenerateSummary(ctx context.Context, batch *model.BatchReport) (*model.NarrativeSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.NarrativeSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available", s.provider.Name())},
		}, nil
	}

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Batch:     batch,
		Documents: DocumentNames(batch),
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &model.NarrativeSummary{
			Enabled:  true,
			Provider: s.provider.Name(),
			Model:    s.config.Model,
			Warnings: []string{fmt.Sprintf("Summary generation failed: %v", err)},
		}, nil
	}

	warnings := []string{fmt.Sprintf("Tokens used: %d", resp.TokensUsed)}
	if len(resp.CitedDocuments) > 0 {
		warnings = append(warnings, fmt.Sprintf("Verified %d document references", len(resp.CitedDocuments)))
	}

	return &model.NarrativeSummary{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Summary,
		Warnings:  warnings,
	}, nil
}

// RenderSeparateMarkdown renders the narrative as its own markdown file.
// Returns "" for a nil or disabled summary.
func RenderSeparateMarkdown(summary *model.NarrativeSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Audit Narrative\n\n")
	b.WriteString("> **GENERATED CONTENT** written by a language model from aggregate counts only.\n")
	b.WriteString("> Alerts and counts in the audit report were determined independently and are not affected by this text.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	b.WriteString("\n")

	if summary.SummaryMD != "" {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	} else {
		b.WriteString("_No summary was generated._\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

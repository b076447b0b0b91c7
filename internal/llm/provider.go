// Package llm writes an optional narrative overview of a batch report.
//
// Providers only ever see aggregate counts, rule labels and document file
// names. Patient names and charge amounts are never sent.
package llm

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
)

// maxPromptDocuments caps the flagged documents listed in a prompt
const maxPromptDocuments = 20

// systemPrompt frames every provider call
const systemPrompt = "You are an assistant helping hospital billing auditors review the output of an automated statement audit. You describe findings; you never decide whether a charge is correct."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative for the batch
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Batch is the finished audit report
	Batch *model.BatchReport

	// Documents is the allowlist of file names the LLM may mention
	Documents []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedDocuments are the document names the LLM mentioned
	CitedDocuments []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI or Anthropic
	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 600,
	}
}

// DocumentNames returns the base names of every source in the batch
func DocumentNames(batch *model.BatchReport) []string {
	names := make([]string, 0, len(batch.Records))
	for _, rec := range batch.Records {
		names = append(names, filepath.Base(rec.Source))
	}
	return names
}

// BuildPrompt constructs the default summarization prompt.
// Only counts, rule labels and file names are included.
func BuildPrompt(batch *model.BatchReport) string {
	s := batch.Summary

	var b strings.Builder
	fmt.Fprintf(&b, `Summarize this billing statement audit for a reviewer.

RULES:
1. Only mention documents by the file names listed below.
2. Do not guess at patient identities, amounts or causes.
3. An alert means a service was billed without its usual companion service; it is a prompt for review, not proof of an error.

Batch:
- Documents: %d
- Documents with alerts: %d
- Unreadable documents: %d
- Documents without a text layer: %d

Alerts per rule:
`, s.Documents, s.WithAlerts, s.Unreadable, s.NoText)

	for _, t := range batch.Rules {
		fmt.Fprintf(&b, "- %s (%s billed without %s): %d\n", t.Rule.Label, t.Rule.Trigger, t.Rule.Required, t.Alerts)
	}

	b.WriteString("\nFlagged documents:\n")
	b.WriteString(flaggedDocuments(batch.Records))

	b.WriteString("\nProvide a 3-5 sentence summary and say which documents to review first.")

	return b.String()
}

// Helper functions

func flaggedDocuments(records []model.AuditRecord) string {
	var lines []string
	total := 0
	for _, rec := range records {
		var status string
		switch {
		case rec.Unreadable():
			status = "unreadable"
		case len(rec.Alerts) > 0:
			status = strings.Join(rec.Alerts, ", ")
		default:
			continue
		}

		total++
		if len(lines) < maxPromptDocuments {
			lines = append(lines, fmt.Sprintf("- %s: %s", filepath.Base(rec.Source), status))
		}
	}

	if total == 0 {
		return "(No flagged documents)\n"
	}
	result := strings.Join(lines, "\n") + "\n"
	if total > maxPromptDocuments {
		result += fmt.Sprintf("... and %d more documents\n", total-maxPromptDocuments)
	}
	return result
}

var documentPattern = regexp.MustCompile(`(?i)[\w\-.]+\.pdf`)

// citedDocuments returns the batch documents named in text, in batch order.
// Any other file name in text fails verification; a match that is only part
// of a cited name (as in "estado (1).pdf") is accepted.
func citedDocuments(text string, allowed []string) ([]string, error) {
	lower := strings.ToLower(text)

	var cited []string
	seen := make(map[string]bool)
	for _, name := range allowed {
		if name == "" || seen[name] {
			continue
		}
		if strings.Contains(lower, strings.ToLower(name)) {
			seen[name] = true
			cited = append(cited, name)
		}
	}

	for _, m := range documentPattern.FindAllString(text, -1) {
		if !partOf(cited, m) {
			return nil, fmt.Errorf("summary names unknown document: %s", m)
		}
	}
	return cited, nil
}

func partOf(names []string, fragment string) bool {
	fragment = strings.ToLower(fragment)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), fragment) {
			return true
		}
	}
	return false
}

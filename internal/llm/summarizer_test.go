package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/billaudit/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	lastReq   SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func testBatch() *model.BatchReport {
	rule := model.OmissionRule{Trigger: "quirofano", Required: "oxigeno", Label: "Oxygen Omission"}
	return &model.BatchReport{
		Records: []model.AuditRecord{
			{
				Source: "/data/march/statement-001.pdf",
				Fields: model.ExtractedFields{PatientName: "MARIA LOPEZ GARCIA", TotalCharge: "$15,430.50"},
				Alerts: []string{"Oxygen Omission"},
			},
			{
				Source: "/data/march/statement-002.pdf",
				Fields: model.MissingFields(),
				Alerts: []string{},
				Note:   "unreadable document: broken xref",
			},
			{
				Source: "/data/march/statement-003.pdf",
				Fields: model.ExtractedFields{PatientName: "JUAN PEREZ SOTO", TotalCharge: "$980.00"},
				Alerts: []string{},
			},
		},
		Rules:   []model.RuleTally{{Rule: rule, Alerts: 1}},
		Summary: model.Summary{Documents: 3, WithAlerts: 1, Unreadable: 1},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	config := Config{
		Provider: "", // Empty = disabled
	}

	summarizer, err := NewSummarizer(config)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}

	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}

	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "watson"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	summarizer := &Summarizer{}

	summary, err := summarizer.GenerateSummary(context.Background(), testBatch())

	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}

	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{name: "test-provider", available: false},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), testBatch())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}

	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}

	if len(summary.Warnings) == 0 || !strings.Contains(summary.Warnings[0], "not available") {
		t.Errorf("Expected warning about provider unavailability, got %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	mockProvider := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:        "Review statement-001.pdf first.",
			CitedDocuments: []string{"statement-001.pdf"},
			Model:          "test-model",
			TokensUsed:     150,
		},
	}

	summarizer := &Summarizer{
		provider: mockProvider,
		config:   Config{Model: "test-model", MaxTokens: 300},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !summary.Enabled {
		t.Error("Expected summary to be enabled")
	}
	if summary.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", summary.Provider)
	}
	if summary.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", summary.Model)
	}
	if summary.SummaryMD != "Review statement-001.pdf first." {
		t.Errorf("Unexpected summary text: '%s'", summary.SummaryMD)
	}

	joined := strings.Join(summary.Warnings, "\n")
	if !strings.Contains(joined, "Tokens used: 150") {
		t.Error("Expected warning about tokens used")
	}
	if !strings.Contains(joined, "Verified 1 document references") {
		t.Error("Expected warning about verified references")
	}

	// Request carries base names only
	want := []string{"statement-001.pdf", "statement-002.pdf", "statement-003.pdf"}
	if strings.Join(mockProvider.lastReq.Documents, ",") != strings.Join(want, ",") {
		t.Errorf("Unexpected document allowlist: %v", mockProvider.lastReq.Documents)
	}
	if mockProvider.lastReq.MaxTokens != 300 {
		t.Errorf("Expected max tokens 300, got %d", mockProvider.lastReq.MaxTokens)
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{
			name:      "test-provider",
			available: true,
			err:       &mockError{msg: "API rate limit exceeded"},
		},
		config: Config{Model: "test-model"},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), testBatch())

	// The audit must not fail because of the narrative
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary with error warning")
	}
	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		summary *model.NarrativeSummary
		want    []string
	}{
		{
			name:    "nil",
			summary: nil,
		},
		{
			name:    "disabled",
			summary: &model.NarrativeSummary{Enabled: false},
		},
		{
			name: "success",
			summary: &model.NarrativeSummary{
				Enabled:   true,
				Provider:  "openai",
				Model:     "gpt-4o-mini",
				SummaryMD: "Two documents need review.",
				Warnings:  []string{"Tokens used: 150"},
			},
			want: []string{"# Audit Narrative", "GENERATED CONTENT", "determined independently", "openai", "gpt-4o-mini", "Two documents need review.", "## Notes", "Tokens used: 150"},
		},
		{
			name:    "no summary text",
			summary: &model.NarrativeSummary{Enabled: true, Provider: "ollama"},
			want:    []string{"No summary was generated"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := RenderSeparateMarkdown(tt.summary)
			if len(tt.want) == 0 {
				if md != "" {
					t.Errorf("Expected empty markdown, got %q", md)
				}
				return
			}
			for _, w := range tt.want {
				if !strings.Contains(md, w) {
					t.Errorf("Expected markdown to contain %q", w)
				}
			}
		})
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt := BuildPrompt(testBatch())

	requiredElements := []string{
		"RULES:",
		"Documents: 3",
		"Documents with alerts: 1",
		"Unreadable documents: 1",
		"Oxygen Omission (quirofano billed without oxigeno): 1",
		"- statement-001.pdf: Oxygen Omission",
		"- statement-002.pdf: unreadable",
	}
	for _, element := range requiredElements {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}

	if strings.Contains(prompt, "statement-003.pdf") {
		t.Error("Clean documents should not be listed")
	}
}

func TestBuildPrompt_NeverLeaksPatientData(t *testing.T) {
	prompt := BuildPrompt(testBatch())

	for _, secret := range []string{"MARIA", "LOPEZ", "JUAN PEREZ", "15,430.50", "980.00", "/data/march"} {
		if strings.Contains(prompt, secret) {
			t.Errorf("Prompt leaks %q", secret)
		}
	}
}

func TestBuildPrompt_NoFlagged(t *testing.T) {
	prompt := BuildPrompt(&model.BatchReport{Summary: model.Summary{Documents: 2}})

	if !strings.Contains(prompt, "No flagged documents") {
		t.Error("Expected message about no flagged documents")
	}
}

func TestBuildPrompt_ManyFlagged(t *testing.T) {
	batch := &model.BatchReport{}
	for i := 0; i < 25; i++ {
		batch.Records = append(batch.Records, model.AuditRecord{
			Source: "doc-" + string(rune('a'+i)) + ".pdf",
			Alerts: []string{"Oxygen Omission"},
		})
	}

	prompt := BuildPrompt(batch)

	if !strings.Contains(prompt, "and 5 more documents") {
		t.Error("Expected truncation message for many documents")
	}
	if !strings.Contains(prompt, "doc-a.pdf") {
		t.Error("Expected first document to be in prompt")
	}
}

func TestCitedDocuments(t *testing.T) {
	allowed := []string{"statement-001.pdf", "march batch 7.pdf", "estado (1).pdf", "statement-001.pdf"}

	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr bool
	}{
		{"known", "Check statement-001.pdf.", []string{"statement-001.pdf"}, false},
		{"spaced name", "See march batch 7.pdf", []string{"march batch 7.pdf"}, false},
		{"punctuation in name", "Review estado (1).pdf first.", []string{"estado (1).pdf"}, false},
		{"case differs", "STATEMENT-001.PDF needs review", []string{"statement-001.pdf"}, false},
		{"batch order", "estado (1).pdf and statement-001.pdf", []string{"statement-001.pdf", "estado (1).pdf"}, false},
		{"none", "Nothing stands out.", nil, false},
		{"unknown", "Also check invoice-99.pdf", nil, true},
		{"unknown next to known", "statement-001.pdf and statement-0011.pdf", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := citedDocuments(tt.text, allowed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("citedDocuments() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("citedDocuments() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("cited %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}
	if config.Timeout <= 0 {
		t.Error("Expected positive timeout")
	}
	if config.MaxTokens <= 0 {
		t.Error("Expected positive max tokens")
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		APIKey:    "sk-test",
		Timeout:   10,
		MaxTokens: 200,
		NoProxy:   "localhost",
	})

	if cfg.Provider != "openai" || cfg.APIKey != "sk-test" || cfg.Timeout != 10 || cfg.MaxTokens != 200 || cfg.NoProxy != "localhost" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestSummarizer_ProviderName(t *testing.T) {
	enabled := &Summarizer{
		provider: &MockProvider{name: "test-provider"},
	}

	if !enabled.IsEnabled() {
		t.Error("Expected IsEnabled() to return true when provider exists")
	}
	if enabled.ProviderName() != "test-provider" {
		t.Errorf("Expected provider name 'test-provider', got '%s'", enabled.ProviderName())
	}
}

// Mock error type for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

package model

// NarrativeSummary is the optional LLM-written overview of a batch.
// It is rendered separately and never feeds back into records or counts.
type NarrativeSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

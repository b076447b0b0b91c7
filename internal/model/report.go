package model

// Sentinel field values used when a pattern does not match
const (
	PatientNotIdentified = "not identified"
	TotalNotFound        = "not found"
)

// Document is one raw input of a batch
type Document struct {
	Name string
	Data []byte
}

// ExtractedFields holds the scalar facts pulled out of a statement
type ExtractedFields struct {
	PatientName string `json:"patient_name"`
	TotalCharge string `json:"total_charge"`
}

// MissingFields returns the sentinel-only field set
func MissingFields() ExtractedFields {
	return ExtractedFields{
		PatientName: PatientNotIdentified,
		TotalCharge: TotalNotFound,
	}
}

// AuditRecord is the analysis result for a single document
type AuditRecord struct {
	Source   string          `json:"source"`
	Fields   ExtractedFields `json:"fields"`
	Concepts ConceptResult   `json:"concepts"`
	Alerts   []string        `json:"alerts"`         // Fired rule labels, in rule order
	NoText   bool            `json:"no_text"`        // Document parsed but had no text layer
	Note     string          `json:"note,omitempty"` // Diagnostic for unreadable documents

	Matched map[string]string `json:"matched,omitempty"` // First synonym found per detected concept
	Charges []string          `json:"charges,omitempty"` // Every labelled amount, document order
}

// HasAlert reports whether the given rule label fired for this record
func (r AuditRecord) HasAlert(label string) bool {
	for _, a := range r.Alerts {
		if a == label {
			return true
		}
	}
	return false
}

// Unreadable reports whether the document failed to parse
func (r AuditRecord) Unreadable() bool {
	return r.Note != ""
}

// RuleTally is a rule together with the number of records it fired on
type RuleTally struct {
	Rule   OmissionRule `json:"rule"`
	Alerts int          `json:"alerts"`
}

// Summary aggregates counts over the whole batch
type Summary struct {
	Documents   int            `json:"documents"`    // Includes unreadable documents
	WithAlerts  int            `json:"with_alerts"`  // Records with at least one fired rule
	Unreadable  int            `json:"unreadable"`   // Records carrying a diagnostic note
	NoText      int            `json:"no_text"`      // Parsed documents without a text layer
	ConceptHits map[string]int `json:"concept_hits"` // Records per detected concept
}

// BatchReport is the complete result of one audit run
// Records keep input order; tallies keep rule configuration order.
type BatchReport struct {
	Records []AuditRecord `json:"records"`
	Rules   []RuleTally   `json:"rules"`
	Summary Summary       `json:"summary"`
}

package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
)

// Whitespace classes include \p{Zs} so no-break spaces from PDF text
// layers count as spaces.
var (
	// Label, optional whitespace, then a run of at least 10 capitals/spaces
	patientPattern = regexp.MustCompile(`Nombre Paciente[\s\p{Zs}]*\n*([A-ZÑ\s\p{Zs}]{10,})`)

	// Label then an amount like 12,345.67
	chargesPattern = regexp.MustCompile(`CARGOS:[\s\p{Zs}]*(\d+(?:,\d+)*\.\d{2})`)
)

// labelBleed is layout text known to leak into the patient name block
const labelBleed = "Medico"

// FieldExtractor pulls scalar fields out of statement text.
// Both fields are best-effort heuristics over an unstructured page layout.
type FieldExtractor struct{}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Extract returns the patient name and total charge, or their sentinels
func (e *FieldExtractor) Extract(text Text) model.ExtractedFields {
	return model.ExtractedFields{
		PatientName: e.PatientName(text),
		TotalCharge: e.TotalCharge(text),
	}
}

// PatientName returns the capitalized block following "Nombre Paciente"
func (e *FieldExtractor) PatientName(text Text) string {
	m := patientPattern.FindStringSubmatch(text.Original)
	if m == nil {
		return model.PatientNotIdentified
	}

	name := strings.TrimSpace(strings.ReplaceAll(m[1], labelBleed, ""))
	if name == "" {
		return model.PatientNotIdentified
	}
	return name
}

// Charges returns every amount labelled "CARGOS:" in document order
func (e *FieldExtractor) Charges(text Text) []string {
	matches := chargesPattern.FindAllStringSubmatch(text.Original, -1)
	charges := make([]string, 0, len(matches))
	for _, m := range matches {
		charges = append(charges, m[1])
	}
	return charges
}

// TotalCharge returns the last "CARGOS:" amount, which statements use for
// the grand total after repeating subtotal lines.
func (e *FieldExtractor) TotalCharge(text Text) string {
	charges := e.Charges(text)
	if len(charges) == 0 {
		return model.TotalNotFound
	}
	return "$" + charges[len(charges)-1]
}

// Package catalog loads and validates the audited concept taxonomy and the
// omission rules evaluated against it.
package catalog

import (
	"fmt"

	"github.com/ppiankov/billaudit/internal/model"
	"gopkg.in/yaml.v3"
)

// Catalog is the static configuration consumed by the audit core
type Catalog struct {
	Concepts model.Taxonomy       `json:"concepts" yaml:"concepts"`
	Rules    []model.OmissionRule `json:"rules" yaml:"rules"`
}

// Default returns the built-in statement catalogue
func Default() *Catalog {
	return &Catalog{
		Concepts: model.Taxonomy{
			{
				Name:     "quirofano",
				Label:    "Operating Room",
				Synonyms: []string{"quirofano", "sala de cirugia", "cirugía"},
			},
			{
				Name:     "oxigeno",
				Label:    "Oxygen",
				Synonyms: []string{"oxigeno", "oxigeno por hora"},
			},
			{
				Name:     "recuperacion",
				Label:    "Recovery Room",
				Synonyms: []string{"recuperacion", "sala de recuperacion"},
			},
			{
				Name:     "habitacion",
				Label:    "Room",
				Synonyms: []string{"habitacion", "habitacion ambulatoria"},
			},
		},
		Rules: []model.OmissionRule{
			{Trigger: "quirofano", Required: "oxigeno", Label: "Oxygen Omission"},
			{Trigger: "quirofano", Required: "recuperacion", Label: "Recovery Omission"},
		},
	}
}

// Triggers returns the distinct trigger concepts in rule order
func (c *Catalog) Triggers() []string {
	seen := make(map[string]bool)
	var triggers []string
	for _, r := range c.Rules {
		if !seen[r.Trigger] {
			seen[r.Trigger] = true
			triggers = append(triggers, r.Trigger)
		}
	}
	return triggers
}

// Marshal renders the catalogue as YAML
func Marshal(c *Catalog) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return data, nil
}

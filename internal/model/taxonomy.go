package model

// Concept is a billable service category recognised in statement text
type Concept struct {
	Name     string   `json:"name" yaml:"name"`         // Stable key (e.g., "quirofano")
	Label    string   `json:"label" yaml:"label"`       // Display name used in table headers
	Synonyms []string `json:"synonyms" yaml:"synonyms"` // Phrases matched case-insensitively
}

// Taxonomy is the ordered set of concepts audited in every document
type Taxonomy []Concept

// Names returns concept names in taxonomy order
func (t Taxonomy) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a concept by name
func (t Taxonomy) Lookup(name string) (Concept, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Concept{}, false
}

// LabelOf returns the display label for a concept, falling back to its name
func (t Taxonomy) LabelOf(name string) string {
	if c, ok := t.Lookup(name); ok && c.Label != "" {
		return c.Label
	}
	return name
}

// ConceptResult maps every taxonomy concept to whether it was detected
type ConceptResult map[string]bool

// OmissionRule states that Trigger being billed implies Required should be billed too
type OmissionRule struct {
	Trigger  string `json:"trigger" yaml:"trigger"`
	Required string `json:"required" yaml:"required"`
	Label    string `json:"label" yaml:"label"`
}

// Fires reports whether the rule's expectation is violated by the detected concepts
func (r OmissionRule) Fires(concepts ConceptResult) bool {
	return concepts[r.Trigger] && !concepts[r.Required]
}

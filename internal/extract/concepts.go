package extract

import (
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
	"golang.org/x/text/unicode/norm"
)

// ConceptDetector tests document text for the concepts of a taxonomy
type ConceptDetector struct {
	concepts []compiledConcept
}

type compiledConcept struct {
	name     string
	synonyms []string
}

// NewConceptDetector prepares lower-cased synonyms for every concept
func NewConceptDetector(taxonomy model.Taxonomy) *ConceptDetector {
	d := &ConceptDetector{
		concepts: make([]compiledConcept, 0, len(taxonomy)),
	}

	for _, c := range taxonomy {
		cc := compiledConcept{name: c.Name}
		for _, s := range c.Synonyms {
			s = strings.ToLower(norm.NFC.String(s))
			if s == "" {
				continue
			}
			cc.synonyms = append(cc.synonyms, s)
		}
		d.concepts = append(d.concepts, cc)
	}

	return d
}

// Detect returns one entry per concept: true iff any synonym occurs in the
// lower-cased text. Matches inside longer words count.
func (d *ConceptDetector) Detect(text Text) model.ConceptResult {
	result := make(model.ConceptResult, len(d.concepts))
	for _, c := range d.concepts {
		_, found := c.match(text.Lower)
		result[c.name] = found
	}
	return result
}

// Matches returns the first synonym found for each detected concept
func (d *ConceptDetector) Matches(text Text) map[string]string {
	matches := make(map[string]string)
	for _, c := range d.concepts {
		if s, found := c.match(text.Lower); found {
			matches[c.name] = s
		}
	}
	return matches
}

func (c compiledConcept) match(lower string) (string, bool) {
	for _, s := range c.synonyms {
		if strings.Contains(lower, s) {
			return s, true
		}
	}
	return "", false
}

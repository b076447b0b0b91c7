// Package rules evaluates omission rules over detected concepts.
package rules

import (
	"github.com/ppiankov/billaudit/internal/catalog"
	"github.com/ppiankov/billaudit/internal/model"
)

// Engine evaluates a fixed, ordered rule table
type Engine struct {
	rules []model.OmissionRule
}

// NewEngine validates the rules against the taxonomy and returns an engine.
// A rule that names an unknown concept is a *catalog.ConfigurationError.
func NewEngine(taxonomy model.Taxonomy, rules []model.OmissionRule) (*Engine, error) {
	if err := catalog.Validate(&catalog.Catalog{Concepts: taxonomy, Rules: rules}); err != nil {
		return nil, err
	}

	return &Engine{
		rules: append([]model.OmissionRule(nil), rules...),
	}, nil
}

// Evaluate returns the labels of fired rules in configuration order.
// Rules are independent: one firing never suppresses another.
func (e *Engine) Evaluate(concepts model.ConceptResult) []string {
	fired := []string{}
	for _, r := range e.rules {
		if r.Fires(concepts) {
			fired = append(fired, r.Label)
		}
	}
	return fired
}

// Tally counts, per rule, the records on which it fired
func (e *Engine) Tally(records []model.AuditRecord) []model.RuleTally {
	tallies := make([]model.RuleTally, len(e.rules))
	for i, r := range e.rules {
		tallies[i].Rule = r
		for _, rec := range records {
			if rec.HasAlert(r.Label) {
				tallies[i].Alerts++
			}
		}
	}
	return tallies
}

package catalog

import (
	"fmt"
	"strings"
)

// Validate checks the catalogue's internal references.
// Every rule must point at concepts present in the taxonomy.
func Validate(c *Catalog) error {
	if c == nil || len(c.Concepts) == 0 {
		return &ConfigurationError{Reason: "taxonomy has no concepts"}
	}

	names := make(map[string]bool, len(c.Concepts))
	for i, concept := range c.Concepts {
		if strings.TrimSpace(concept.Name) == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("concept #%d has no name", i+1)}
		}
		if names[concept.Name] {
			return &ConfigurationError{Concept: concept.Name, Reason: "duplicate concept name"}
		}
		names[concept.Name] = true

		if len(concept.Synonyms) == 0 {
			return &ConfigurationError{Concept: concept.Name, Reason: "no synonyms"}
		}
		for _, s := range concept.Synonyms {
			if strings.TrimSpace(s) == "" {
				return &ConfigurationError{Concept: concept.Name, Reason: "empty synonym"}
			}
		}
	}

	labels := make(map[string]bool, len(c.Rules))
	for i, rule := range c.Rules {
		label := rule.Label
		if strings.TrimSpace(label) == "" {
			return &ConfigurationError{Rule: fmt.Sprintf("#%d", i+1), Reason: "rule has no label"}
		}
		if labels[label] {
			return &ConfigurationError{Rule: label, Reason: "duplicate rule label"}
		}
		labels[label] = true

		if !names[rule.Trigger] {
			return &ConfigurationError{Rule: label, Concept: rule.Trigger, Reason: "trigger concept not in taxonomy"}
		}
		if !names[rule.Required] {
			return &ConfigurationError{Rule: label, Concept: rule.Required, Reason: "required concept not in taxonomy"}
		}
		if rule.Trigger == rule.Required {
			return &ConfigurationError{Rule: label, Concept: rule.Trigger, Reason: "trigger and required concept are the same"}
		}
	}

	return nil
}

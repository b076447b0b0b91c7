package catalog

import "fmt"

// ConfigurationError reports a catalogue that cannot be used to audit anything.
// Rule and Concept name the offending entries when they apply.
type ConfigurationError struct {
	Rule    string
	Concept string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Rule != "" && e.Concept != "":
		return fmt.Sprintf("configuration error: rule %q: concept %q: %s", e.Rule, e.Concept, e.Reason)
	case e.Rule != "":
		return fmt.Sprintf("configuration error: rule %q: %s", e.Rule, e.Reason)
	case e.Concept != "":
		return fmt.Sprintf("configuration error: concept %q: %s", e.Concept, e.Reason)
	default:
		return "configuration error: " + e.Reason
	}
}

package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// RedactionEntry records one redacted occurrence in a record section
type RedactionEntry struct {
	// Section key the match was found in
	Section string `json:"section"`

	// Pattern category that produced the match
	Category string `json:"category"`

	// Original matched text, before the placeholder was substituted
	Match string `json:"match"`
}

// String renders the entry in the audit line format consumers expect
func (e RedactionEntry) String() string {
	return fmt.Sprintf("Removed %s: %s", e.Category, e.Match)
}

// RedactionSummary is the ordered audit trail of a redaction pass.
// Order is section, then category, then pattern, then match position.
type RedactionSummary []RedactionEntry

// Lines renders every entry as "<section>: Removed <category>: <match>"
func (s RedactionSummary) Lines() []string {
	lines := make([]string, 0, len(s))
	for _, e := range s {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Section, e.String()))
	}
	return lines
}

// CountByCategory returns the number of entries per category
func (s RedactionSummary) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, e := range s {
		counts[e.Category]++
	}
	return counts
}

// NewRequestID creates a unique ID for request tracking
func NewRequestID() string {
	return uuid.NewString()
}

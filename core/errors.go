package core

import (
	"errors"
	"fmt"
)

// ErrUnexpectedValue is wrapped by a SectionError for a section that is not a string
var ErrUnexpectedValue = errors.New("unexpected section value type")

// ConfigError reports an invalid pattern table. It is fatal: a table that
// fails validation is never constructed.
type ConfigError struct {
	Category string
	Index    int // pattern index within the category, -1 for category-level problems
	Pattern  string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("pattern table: category %q: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("pattern table: category %q pattern %d: %v", e.Category, e.Index, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SectionError reports a section that could not be redacted. The rest of
// the record is still processed.
type SectionError struct {
	Section  string
	Category string // empty when the failure is not tied to one category
	Err      error
}

func (e *SectionError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("section %q: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("section %q category %q: %v", e.Section, e.Category, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

package llm

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var errEmptyDocument = errors.New("document is empty")

// RequestValidator checks a solicitation document before it is sent to the model
type RequestValidator struct {
	maxSize int
}

// NewRequestValidator creates a validator. maxSize <= 0 disables the size check.
func NewRequestValidator(maxSize int) *RequestValidator {
	return &RequestValidator{maxSize: maxSize}
}

// ValidateDocument rejects empty, oversized and non-UTF-8 documents
func (v *RequestValidator) ValidateDocument(document string) error {
	if strings.TrimSpace(document) == "" {
		return errEmptyDocument
	}
	if v.maxSize > 0 && len(document) > v.maxSize {
		return fmt.Errorf("document exceeds maximum size of %d bytes", v.maxSize)
	}
	if !utf8.ValidString(document) {
		return errors.New("document is not valid UTF-8")
	}
	return nil
}

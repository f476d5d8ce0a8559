package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrorCategory classifies extraction failures for the audit trail
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryRateLimit  ErrorCategory = "rate_limit"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryModel      ErrorCategory = "model"
	ErrorCategorySystem     ErrorCategory = "system"
)

// ExtractionError wraps a failed extraction with its category and request
type ExtractionError struct {
	Category    ErrorCategory
	OriginalErr error
	RequestID   string
	Timestamp   time.Time
	Details     map[string]interface{}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("[%s] %s (request: %s)", e.Category, e.OriginalErr.Error(), e.RequestID)
}

func (e *ExtractionError) Unwrap() error {
	return e.OriginalErr
}

// newExtractionError creates an ExtractionError with standard fields
func newExtractionError(category ErrorCategory, err error, requestID string, details map[string]interface{}) *ExtractionError {
	return &ExtractionError{
		Category:    category,
		OriginalErr: err,
		RequestID:   requestID,
		Timestamp:   time.Now().UTC(),
		Details:     details,
	}
}

// ErrorReporter writes extraction errors as JSON log lines
type ErrorReporter struct {
	logger *log.Logger
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(logger *log.Logger) *ErrorReporter {
	return &ErrorReporter{
		logger: logger,
	}
}

// ReportError logs err with any ExtractionError metadata it carries
func (e *ErrorReporter) ReportError(err error) {
	details := map[string]interface{}{}

	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		details["category"] = string(extErr.Category)
		details["request_id"] = extErr.RequestID
		details["timestamp"] = extErr.Timestamp.Format(time.RFC3339)
		for k, v := range extErr.Details {
			details[k] = v
		}
	}

	logEntry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     "error",
		"error":     err.Error(),
		"details":   details,
	}

	jsonData, mErr := json.Marshal(logEntry)
	if mErr != nil {
		e.logger.Printf("Error marshaling error log: %v", mErr)
		return
	}

	e.logger.Println(string(jsonData))
}

// categorizeError guesses a category from a completer error
func categorizeError(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrToolError) {
		return ErrorCategoryModel
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return ErrorCategoryRateLimit
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorCategoryTimeout
	case strings.Contains(errStr, "network") || strings.Contains(errStr, "connection"):
		return ErrorCategoryNetwork
	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "validation"):
		return ErrorCategoryValidation
	}

	return ErrorCategorySystem
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/SamuelRCrider/rfq-scrub/core"
	"github.com/SamuelRCrider/rfq-scrub/utils"
)

const rateLimitKey = "extract"

// Extractor turns a solicitation document into a record by prompting the
// external model and parsing its reply
type Extractor struct {
	completer     Completer
	parser        *ResponseParser
	config        ExtractorConfig
	rateLimiter   *RateLimiter
	validator     *RequestValidator
	requestLog    *RequestLogger
	errorReporter *ErrorReporter
}

// NewExtractor creates an extractor around completer. A nil config is
// loaded from the environment and defaults.
func NewExtractor(completer Completer, config *ExtractorConfig, logger *log.Logger) *Extractor {
	config = LoadExtractorConfig(config)
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	var rateLimiter *RateLimiter
	if config.RateLimitEnabled {
		rateLimiter = NewRateLimiter(config.RequestsPerMinute, time.Minute)
	}

	return &Extractor{
		completer:     completer,
		parser:        NewResponseParser(logger),
		config:        *config,
		rateLimiter:   rateLimiter,
		validator:     NewRequestValidator(config.MaxDocumentSize),
		requestLog:    NewRequestLogger(logger, config.AuditLevel),
		errorReporter: NewErrorReporter(logger),
	}
}

// Parser returns the response parser the extractor uses
func (e *Extractor) Parser() *ResponseParser {
	return e.parser
}

// Available reports whether a model is configured
func (e *Extractor) Available() bool {
	return e.completer != nil
}

// Extract validates document, asks the model for its structured summary and
// parses the reply. A malformed reply still yields a (fallback) record; only
// validation, rate limiting and model call failures return an error, always
// as an *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, requestID, document string) (*core.Record, error) {
	if requestID == "" {
		requestID = utils.NewRequestID()
	}
	startTime := time.Now()

	requestDetails := map[string]interface{}{
		"document_bytes": len(document),
		"request_id":     requestID,
	}
	e.requestLog.LogRequest(requestID, requestDetails, auditLevelMinimal)

	if e.completer == nil {
		return nil, e.fail(ErrorCategorySystem, errors.New("no model configured"), requestID, nil)
	}

	if err := e.validator.ValidateDocument(document); err != nil {
		return nil, e.fail(ErrorCategoryValidation, err, requestID, nil)
	}

	if e.rateLimiter != nil {
		limited, count, resetTime := e.rateLimiter.CheckLimit(rateLimitKey)
		if limited {
			return nil, e.fail(ErrorCategoryRateLimit,
				fmt.Errorf("rate limit exceeded: %d requests (limit: %d)", count, e.config.RequestsPerMinute),
				requestID,
				map[string]interface{}{
					"current_count": count,
					"limit":         e.config.RequestsPerMinute,
					"reset_time":    resetTime.Format(time.RFC3339),
				})
		}
		requestDetails["rate_limit_count"] = count
	}

	userPrompt := BuildExtractionPrompt(document)
	requestDetails["input_tokens_est"] = estimateTokens(userPrompt)
	e.requestLog.LogRequest(requestID, requestDetails, auditLevelStandard)

	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	raw, err := e.completer.Complete(callCtx, CompletionRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   userPrompt,
		Model:        e.config.Model,
		Temperature:  e.config.Temperature,
		MaxTokens:    e.config.MaxTokens,
		RequestID:    requestID,
	})
	if err != nil {
		return nil, e.fail(categorizeError(err), fmt.Errorf("model call failed: %w", err), requestID, nil)
	}

	rec := e.parser.Parse(raw)

	duration := time.Since(startTime)
	e.requestLog.LogResponse(requestID, map[string]interface{}{
		"request_id":         requestID,
		"output_chars":       len(raw),
		"output_tokens_est":  estimateTokens(raw),
		"extracted_sections": rec.ExtractedSections,
		"confidence_score":   rec.ConfidenceScore,
	}, duration, auditLevelStandard)

	return rec, nil
}

func (e *Extractor) fail(category ErrorCategory, err error, requestID string, details map[string]interface{}) error {
	extErr := newExtractionError(category, err, requestID, details)
	e.errorReporter.ReportError(extErr)
	return extErr
}

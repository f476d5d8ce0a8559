package rfq

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/SamuelRCrider/rfq-scrub/core"
	"github.com/SamuelRCrider/rfq-scrub/llm"
	"github.com/SamuelRCrider/rfq-scrub/utils"
)

// ErrProcessingFailed is the only failure callers outside the pipeline see
var ErrProcessingFailed = errors.New("processing failed")

// ProcessingError hides the cause of a pipeline failure behind a stable
// message. The cause is kept for logging and errors.As.
type ProcessingError struct {
	RequestID string
	Stage     string
	cause     error
}

func (e *ProcessingError) Error() string {
	return ErrProcessingFailed.Error()
}

// Is makes errors.Is(err, ErrProcessingFailed) hold
func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessingFailed
}

func (e *ProcessingError) Unwrap() error {
	return e.cause
}

// Config configures a Pipeline
type Config struct {
	// Completer is the external model; nil disables ProcessDocument
	Completer llm.Completer

	// Extractor settings; nil loads them from the environment
	Extractor *llm.ExtractorConfig

	// Pattern table; nil selects the built-in table
	Patterns *core.PatternTable

	// Operational log; nil logs to stdout with an [RFQ] prefix
	Logger *log.Logger

	// Audit trail; nil disables auditing
	Audit *core.AuditLogger
}

// Result is what the pipeline hands to downstream RFQ assembly
type Result struct {
	RequestID        string                 `json:"request_id"`
	ExtractedContent *core.Record           `json:"extracted_content"`
	RedactedContent  *core.RedactedRecord   `json:"redacted_content"`
	RedactionSummary utils.RedactionSummary `json:"redaction_summary"`
	ConfidenceScore  float64                `json:"confidence_score"`
}

// Pipeline runs extraction then redaction for one document per call.
// It is safe for concurrent use.
type Pipeline struct {
	extractor *llm.Extractor
	redactor  *core.Redactor
	audit     *core.AuditLogger
	logger    *log.Logger
}

// NewPipeline wires a pipeline from cfg
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[RFQ] ", log.LstdFlags)
	}

	return &Pipeline{
		extractor: llm.NewExtractor(cfg.Completer, cfg.Extractor, logger),
		redactor:  core.NewRedactor(cfg.Patterns, logger),
		audit:     cfg.Audit,
		logger:    logger,
	}
}

// NewDiscardPipeline is NewPipeline with logging switched off
func NewDiscardPipeline(cfg Config) *Pipeline {
	cfg.Logger = log.New(io.Discard, "", 0)
	return NewPipeline(cfg)
}

// Health reports whether a model is configured for document processing
func (p *Pipeline) Health() map[string]string {
	status := map[string]string{"status": "healthy", "extractor": "ready"}
	if !p.extractor.Available() {
		status["status"] = "error"
		status["extractor"] = "no_model"
	}
	return status
}

// ProcessDocument extracts a structured summary of document with the
// external model and redacts it
func (p *Pipeline) ProcessDocument(ctx context.Context, document string) (*Result, error) {
	requestID := utils.NewRequestID()

	rec, err := p.extractor.Extract(ctx, requestID, document)
	if err != nil {
		return nil, p.failure(requestID, "extraction", err)
	}

	return p.redact(requestID, rec)
}

// ProcessResponse parses an already obtained model reply and redacts it
func (p *Pipeline) ProcessResponse(ctx context.Context, raw string) (*Result, error) {
	requestID := utils.NewRequestID()
	if err := ctx.Err(); err != nil {
		return nil, p.failure(requestID, "parse", err)
	}

	return p.redact(requestID, p.extractor.Parser().Parse(raw))
}

// ProcessRecord redacts a record built elsewhere
func (p *Pipeline) ProcessRecord(ctx context.Context, rec *core.Record) (*Result, error) {
	requestID := utils.NewRequestID()
	if err := ctx.Err(); err != nil {
		return nil, p.failure(requestID, "redaction", err)
	}
	if rec == nil {
		return nil, p.failure(requestID, "redaction", errors.New("nil record"))
	}

	return p.redact(requestID, rec)
}

func (p *Pipeline) redact(requestID string, rec *core.Record) (*Result, error) {
	redacted, summary := p.redactor.Redact(rec)

	if p.audit != nil {
		if err := p.audit.LogRedaction(requestID, redacted, summary); err != nil {
			// Log but don't fail on audit errors
			p.logger.Printf("Warning: failed to write audit event for request %s: %v", requestID, err)
		}
	}

	return &Result{
		RequestID:        requestID,
		ExtractedContent: rec,
		RedactedContent:  redacted,
		RedactionSummary: summary,
		ConfidenceScore:  rec.ConfidenceScore,
	}, nil
}

func (p *Pipeline) failure(requestID, stage string, err error) error {
	p.logger.Printf("Request %s failed during %s: %v", requestID, stage, err)
	if p.audit != nil {
		if auditErr := p.audit.LogFailure(requestID, stage, err); auditErr != nil {
			p.logger.Printf("Warning: failed to write audit event for request %s: %v", requestID, auditErr)
		}
	}
	return &ProcessingError{RequestID: requestID, Stage: stage, cause: err}
}

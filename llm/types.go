package llm

import (
	"context"
	"time"
)

// ExtractorConfig holds configuration for model-backed extraction
type ExtractorConfig struct {
	ToolName     string        // The MCP tool name to call
	Model        string        // Model name passed to the tool
	Temperature  float64       // Controls randomness (0.0-1.0)
	MaxTokens    int           // Maximum tokens to generate
	Timeout      time.Duration // Deadline for a single extraction
	RetryCount   int           // Number of retries on failure
	RetryBackoff time.Duration // Base backoff between retries, doubled per attempt

	RateLimitEnabled  bool   // Enable rate limiting
	RequestsPerMinute int    // Max extractions per minute
	MaxDocumentSize   int    // Maximum document size in bytes
	AuditLevel        string // Request logging level: "minimal", "standard", "verbose"
}

// CompletionRequest is one call to the external model
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Temperature  float64
	MaxTokens    int
	RequestID    string
}

// Completer is the external language model: it takes a prompt and
// returns the model's raw reply text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

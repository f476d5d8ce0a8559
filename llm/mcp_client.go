package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrToolError is returned when the MCP tool reports a failed call
var ErrToolError = errors.New("MCP tool returned an error")

// toolClient is the subset of the mcp-go client the completer uses
type toolClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// MCPCompleter sends prompts to a language model exposed as an MCP tool
type MCPCompleter struct {
	client      toolClient
	config      ExtractorConfig
	logger      *log.Logger
	mu          sync.Mutex
	initialized bool
}

// NewMCPCompleter starts the configured MCP server and returns a completer
// that calls its extraction tool
func NewMCPCompleter(serverPath string, config *ExtractorConfig, logger *log.Logger) (*MCPCompleter, error) {
	serverConfig, err := GetMCPServerConfig(serverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to configure MCP server: %w", err)
	}

	var mcpClient toolClient
	switch serverConfig.Transport {
	case "stdio":
		mcpClient, err = client.NewStdioMCPClient(serverConfig.Path, serverConfig.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP stdio client: %w", err)
		}
	case "http":
		return nil, fmt.Errorf("HTTP transport not currently supported by this implementation")
	default:
		return nil, fmt.Errorf("unsupported MCP transport type: %s", serverConfig.Transport)
	}

	c := newMCPCompleter(mcpClient, LoadExtractorConfig(config), logger)
	c.logger.Printf("MCP completer initialized with server: %s, tool: %s, model: %s",
		serverConfig.Path, c.config.ToolName, c.config.Model)
	return c, nil
}

func newMCPCompleter(tc toolClient, config *ExtractorConfig, logger *log.Logger) *MCPCompleter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &MCPCompleter{
		client: tc,
		config: *config,
		logger: logger,
	}
}

// Close stops the MCP server
func (c *MCPCompleter) Close() error {
	return c.client.Close()
}

func (c *MCPCompleter) initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	request := mcp.InitializeRequest{}
	request.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	request.Params.ClientInfo = mcp.Implementation{
		Name:    "rfq-scrub",
		Version: "1.0.0",
	}

	if _, err := c.client.Initialize(ctx, request); err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}
	c.initialized = true
	return nil
}

// Complete calls the tool, retrying with exponential backoff. Context
// cancellation and deadline errors are not retried.
func (c *MCPCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.initialize(ctx); err != nil {
		return "", err
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = c.config.ToolName
	request.Params.Arguments = map[string]interface{}{
		"system_prompt": req.SystemPrompt,
		"input":         req.UserPrompt,
		"model":         req.Model,
		"temperature":   req.Temperature,
		"max_tokens":    req.MaxTokens,
		"request_id":    req.RequestID,
	}

	var result *mcp.CallToolResult
	var err error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoffTime := c.config.RetryBackoff * time.Duration(1<<(attempt-1))
			c.logger.Printf("Retrying MCP call (request %s, attempt %d) after %v: %v",
				req.RequestID, attempt, backoffTime, err)

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("MCP call canceled: %w", ctx.Err())
			case <-time.After(backoffTime):
			}
		}

		result, err = c.client.CallTool(ctx, request)
		if err == nil {
			break
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("MCP call timeout or canceled: %w", err)
		}
	}

	if err != nil {
		return "", fmt.Errorf("MCP call failed after %d attempts: %w", c.config.RetryCount+1, err)
	}

	text := resultText(result)
	if result.IsError {
		return "", fmt.Errorf("%w: %s", ErrToolError, text)
	}
	return text, nil
}

// resultText concatenates the text parts of a tool result
func resultText(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			b.WriteString(textContent.Text)
		}
	}
	return b.String()
}

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToolClient replays canned results and records each call
type fakeToolClient struct {
	mu          sync.Mutex
	initCalls   int
	initErr     error
	results     []*mcp.CallToolResult
	errs        []error
	requests    []mcp.CallToolRequest
	closeCalled bool
}

func (f *fakeToolClient) Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeToolClient) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.requests)
	f.requests = append(f.requests, request)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return f.results[len(f.results)-1], nil
}

func (f *fakeToolClient) Close() error {
	f.closeCalled = true
	return nil
}

func textResult(parts ...string) *mcp.CallToolResult {
	result := &mcp.CallToolResult{}
	for _, p := range parts {
		result.Content = append(result.Content, mcp.NewTextContent(p))
	}
	return result
}

func testCompleterConfig(retries int) *ExtractorConfig {
	config := testConfig()
	config.RetryCount = retries
	config.RetryBackoff = time.Millisecond
	return config
}

func TestMCPCompleterComplete(t *testing.T) {
	fake := &fakeToolClient{results: []*mcp.CallToolResult{textResult(`{"timeline": `, `"Q3"}`)}}
	completer := newMCPCompleter(fake, testCompleterConfig(0), nil)

	req := CompletionRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Model:        "test-model",
		Temperature:  0.1,
		MaxTokens:    100,
		RequestID:    "req-1",
	}
	text, err := completer.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"timeline": "Q3"}`, text)

	_, err = completer.Complete(context.Background(), req)
	require.NoError(t, err)

	// the session is initialized once
	assert.Equal(t, 1, fake.initCalls)
	require.Len(t, fake.requests, 2)

	call := fake.requests[0]
	assert.Equal(t, "rfq.extract", call.Params.Name)
	assert.Equal(t, "user", call.Params.Arguments["input"])
	assert.Equal(t, "system", call.Params.Arguments["system_prompt"])
	assert.Equal(t, "test-model", call.Params.Arguments["model"])
	assert.Equal(t, "req-1", call.Params.Arguments["request_id"])

	require.NoError(t, completer.Close())
	assert.True(t, fake.closeCalled)
}

func TestMCPCompleterRetries(t *testing.T) {
	fake := &fakeToolClient{
		errs:    []error{errors.New("connection reset"), errors.New("connection reset")},
		results: []*mcp.CallToolResult{textResult("ok")},
	}
	completer := newMCPCompleter(fake, testCompleterConfig(2), nil)

	text, err := completer.Complete(context.Background(), CompletionRequest{RequestID: "req"})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Len(t, fake.requests, 3)
}

func TestMCPCompleterGivesUp(t *testing.T) {
	boom := errors.New("connection reset")
	fake := &fakeToolClient{
		errs:    []error{boom, boom, boom},
		results: []*mcp.CallToolResult{textResult("unused")},
	}
	completer := newMCPCompleter(fake, testCompleterConfig(1), nil)

	_, err := completer.Complete(context.Background(), CompletionRequest{RequestID: "req"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Len(t, fake.requests, 2)
}

func TestMCPCompleterDoesNotRetryCancellation(t *testing.T) {
	fake := &fakeToolClient{
		errs:    []error{context.Canceled},
		results: []*mcp.CallToolResult{textResult("unused")},
	}
	completer := newMCPCompleter(fake, testCompleterConfig(3), nil)

	_, err := completer.Complete(context.Background(), CompletionRequest{RequestID: "req"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, fake.requests, 1)
}

func TestMCPCompleterToolError(t *testing.T) {
	result := textResult("model overloaded")
	result.IsError = true
	fake := &fakeToolClient{results: []*mcp.CallToolResult{result}}
	completer := newMCPCompleter(fake, testCompleterConfig(0), nil)

	_, err := completer.Complete(context.Background(), CompletionRequest{RequestID: "req"})
	assert.True(t, errors.Is(err, ErrToolError))
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, ErrorCategoryModel, categorizeError(err))
}

func TestMCPCompleterInitializeError(t *testing.T) {
	fake := &fakeToolClient{initErr: errors.New("handshake failed")}
	completer := newMCPCompleter(fake, testCompleterConfig(0), nil)

	_, err := completer.Complete(context.Background(), CompletionRequest{RequestID: "req"})
	assert.Error(t, err)
	assert.Empty(t, fake.requests)
}

func TestNewMCPCompleterRejectsHTTP(t *testing.T) {
	_, err := NewMCPCompleter("https://mcp.example.com", testConfig(), nil)
	assert.Error(t, err)
}

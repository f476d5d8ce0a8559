package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MCPServerConfig holds configuration for connecting to an MCP server
type MCPServerConfig struct {
	// Path to the MCP server executable, empty for HTTP
	Path string

	// URL for HTTP transport (if Path is empty)
	URL string

	// Transport type: "stdio" or "http"
	Transport string

	// Environment entries ("KEY=value") passed to a stdio server
	Env []string
}

// DiscoverMCPServers finds MCP servers from the environment and common
// installation locations
func DiscoverMCPServers() ([]MCPServerConfig, error) {
	servers := []MCPServerConfig{}

	if serverPath := os.Getenv("MCP_SERVER_PATH"); serverPath != "" {
		servers = append(servers, MCPServerConfig{
			Path:      serverPath,
			Transport: "stdio",
		})
	}

	if serverURL := os.Getenv("MCP_SERVER_URL"); serverURL != "" {
		servers = append(servers, MCPServerConfig{
			URL:       serverURL,
			Transport: "http",
		})
	}

	// Comma-separated list
	if serverList := os.Getenv("MCP_SERVERS"); serverList != "" {
		for _, server := range strings.Split(serverList, ",") {
			server = strings.TrimSpace(server)
			if server == "" {
				continue
			}
			servers = append(servers, serverConfigFor(server))
		}
	}

	commonPaths := []string{
		"./mcp-server",
		filepath.Join(os.Getenv("HOME"), ".local/bin/mcp-server"),
		"/usr/local/bin/mcp-server",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			servers = append(servers, MCPServerConfig{
				Path:      path,
				Transport: "stdio",
			})
		}
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no MCP servers discovered; set MCP_SERVER_PATH, MCP_SERVER_URL, or MCP_SERVERS")
	}

	return servers, nil
}

// GetMCPServerConfig returns the server to use. An explicit serverPath
// takes precedence over discovery.
func GetMCPServerConfig(serverPath string) (*MCPServerConfig, error) {
	if serverPath != "" {
		cfg := serverConfigFor(serverPath)
		return &cfg, nil
	}

	servers, err := DiscoverMCPServers()
	if err != nil {
		return nil, err
	}
	return &servers[0], nil
}

func serverConfigFor(target string) MCPServerConfig {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return MCPServerConfig{URL: target, Transport: "http"}
	}
	return MCPServerConfig{Path: target, Transport: "stdio"}
}

// DefaultExtractorConfig returns the built-in extraction settings
func DefaultExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		ToolName:          "rfq.extract",
		Model:             "default",
		Temperature:       0.1,
		MaxTokens:         4000,
		Timeout:           60 * time.Second,
		RetryCount:        2,
		RetryBackoff:      500 * time.Millisecond,
		RequestsPerMinute: 60,
		MaxDocumentSize:   32 * 1024,
		AuditLevel:        "standard",
	}
}

// LoadExtractorConfig returns a copy of in with unset fields filled from
// the environment, then from defaults. A nil in starts from the defaults.
// Temperature and RetryCount are taken as given, zero included; in itself
// is never modified.
func LoadExtractorConfig(in *ExtractorConfig) *ExtractorConfig {
	defaults := DefaultExtractorConfig()

	var config *ExtractorConfig
	if in == nil {
		config = &ExtractorConfig{
			Temperature: defaults.Temperature,
			RetryCount:  defaults.RetryCount,
		}
	} else {
		copied := *in
		config = &copied
	}

	if config.ToolName == "" {
		config.ToolName = envOr("MCP_TOOL_NAME", defaults.ToolName)
	}
	if config.Model == "" {
		config.Model = envOr("MCP_MODEL", defaults.Model)
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.MaxDocumentSize == 0 {
		config.MaxDocumentSize = envInt("RFQ_MAX_DOCUMENT_BYTES", defaults.MaxDocumentSize)
	}
	if config.RequestsPerMinute == 0 {
		if rpm := envInt("RFQ_REQUESTS_PER_MINUTE", 0); rpm > 0 {
			config.RequestsPerMinute = rpm
			config.RateLimitEnabled = true
		} else {
			config.RequestsPerMinute = defaults.RequestsPerMinute
		}
	}
	if config.AuditLevel == "" {
		config.AuditLevel = defaults.AuditLevel
	}

	return config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

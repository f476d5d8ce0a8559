package llm

import (
	"encoding/json"
	"log"
	"time"
)

// Audit levels for the request logger
const (
	auditLevelMinimal  = "minimal"
	auditLevelStandard = "standard"
	auditLevelVerbose  = "verbose"
)

var auditLevelRank = map[string]int{
	auditLevelMinimal:  0,
	auditLevelStandard: 1,
	auditLevelVerbose:  2,
}

// RequestLogger writes extraction request and response events as JSON
// lines. Events more detailed than the configured level are dropped.
type RequestLogger struct {
	logger     *log.Logger
	auditLevel string
}

// NewRequestLogger creates a new request logger
func NewRequestLogger(logger *log.Logger, auditLevel string) *RequestLogger {
	if _, ok := auditLevelRank[auditLevel]; !ok {
		auditLevel = auditLevelStandard
	}
	return &RequestLogger{
		logger:     logger,
		auditLevel: auditLevel,
	}
}

func (l *RequestLogger) enabled(level string) bool {
	return auditLevelRank[level] <= auditLevelRank[l.auditLevel]
}

// LogRequest logs request details. Document content is never logged, only its size.
func (l *RequestLogger) LogRequest(requestID string, request map[string]interface{}, level string) {
	if !l.enabled(level) {
		return
	}

	l.write(map[string]interface{}{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
		"event":      "request",
		"level":      level,
		"data":       request,
	})
}

// LogResponse logs response details
func (l *RequestLogger) LogResponse(requestID string, response map[string]interface{}, duration time.Duration, level string) {
	if !l.enabled(level) {
		return
	}

	l.write(map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"request_id":  requestID,
		"event":       "response",
		"level":       level,
		"duration_ms": duration.Milliseconds(),
		"data":        response,
	})
}

func (l *RequestLogger) write(entry map[string]interface{}) {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("Error marshaling log entry: %v", err)
		return
	}
	l.logger.Println(string(jsonData))
}

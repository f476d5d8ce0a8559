package llm

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	limited, count, reset := limiter.CheckLimit("extract")
	assert.False(t, limited)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(time.Minute), reset)

	limited, _, _ = limiter.CheckLimit("extract")
	assert.False(t, limited)

	limited, count, _ = limiter.CheckLimit("extract")
	assert.True(t, limited)
	assert.Equal(t, 3, count)

	// other keys are counted separately
	limited, _, _ = limiter.CheckLimit("other")
	assert.False(t, limited)

	// a new window starts after the period
	now = now.Add(2 * time.Minute)
	limited, count, _ = limiter.CheckLimit("extract")
	assert.False(t, limited)
	assert.Equal(t, 1, count)
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRequestLogger(log.New(&buf, "", 0), "minimal")

	logger.LogRequest("req", map[string]interface{}{"document_bytes": 10}, auditLevelStandard)
	assert.Empty(t, buf.String())

	logger.LogRequest("req", map[string]interface{}{"document_bytes": 10}, auditLevelMinimal)
	assert.Contains(t, buf.String(), `"event":"request"`)

	buf.Reset()
	logger = NewRequestLogger(log.New(&buf, "", 0), "unknown")
	logger.LogResponse("req", map[string]interface{}{"output_chars": 5}, time.Second, auditLevelStandard)
	assert.Contains(t, buf.String(), `"duration_ms":1000`)
}

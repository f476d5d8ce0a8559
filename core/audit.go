package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SamuelRCrider/rfq-scrub/utils"
)

// AuditLogLevel defines the verbosity of audit logging
type AuditLogLevel string

const (
	// AuditLogLevelMinimal logs counts only
	AuditLogLevelMinimal AuditLogLevel = "minimal"

	// AuditLogLevelStandard logs entries with matched text replaced by a fingerprint
	AuditLogLevelStandard AuditLogLevel = "standard"

	// AuditLogLevelVerbose logs entries including the matched text
	AuditLogLevelVerbose AuditLogLevel = "verbose"
)

// ParseAuditLogLevel validates a level name
func ParseAuditLogLevel(s string) (AuditLogLevel, error) {
	switch level := AuditLogLevel(s); level {
	case AuditLogLevelMinimal, AuditLogLevelStandard, AuditLogLevelVerbose:
		return level, nil
	case "":
		return AuditLogLevelStandard, nil
	default:
		return "", fmt.Errorf("unknown audit level %q", s)
	}
}

// AuditLogSeverity defines the severity of audit log events
type AuditLogSeverity string

const (
	// SeverityInfo for normal operations
	SeverityInfo AuditLogSeverity = "info"

	// SeverityWarning for sections that were skipped
	SeverityWarning AuditLogSeverity = "warning"

	// SeverityError for failed requests
	SeverityError AuditLogSeverity = "error"
)

// AuditEntry is one redaction as it appears in the audit trail
type AuditEntry struct {
	Section     string `json:"section"`
	Category    string `json:"category"`
	Match       string `json:"match,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// AuditLog is a single JSONL audit event
type AuditLog struct {
	RequestID string           `json:"request_id"`
	Timestamp string           `json:"timestamp"`
	EventType string           `json:"event_type"`
	Severity  AuditLogSeverity `json:"severity"`

	// Redaction details
	SectionCount   int            `json:"section_count,omitempty"`
	RedactionCount int            `json:"redaction_count"`
	Categories     map[string]int `json:"categories,omitempty"`
	Entries        []AuditEntry   `json:"entries,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuditLogger writes audit events as JSON lines. It is safe for concurrent use.
type AuditLogger struct {
	mu           sync.Mutex
	level        AuditLogLevel
	writer       io.Writer
	file         *os.File
	logPath      string
	rotationSize int64 // Size in bytes after which the file rotates, 0 disables
	currentSize  int64
	logRetention int // Days to retain rotated files
	closed       bool
	rename       func(oldpath, newpath string) error
}

// NewAuditLogger creates a logger that writes to w
func NewAuditLogger(w io.Writer, level AuditLogLevel) *AuditLogger {
	return &AuditLogger{
		level:  level,
		writer: w,
	}
}

// OpenAuditLogger creates a logger appending to the file at path, rotating
// it once it reaches rotationSize bytes and removing rotated files older
// than retentionDays.
func OpenAuditLogger(path string, level AuditLogLevel, rotationSize int64, retentionDays int) (*AuditLogger, error) {
	l := &AuditLogger{
		level:        level,
		logPath:      path,
		rotationSize: rotationSize,
		logRetention: retentionDays,
		rename:       os.Rename,
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *AuditLogger) openFile() error {
	dir := filepath.Dir(l.logPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to get log file info: %w", err)
	}

	l.file = f
	l.writer = f
	l.currentSize = info.Size()
	return nil
}

// Close closes the underlying file, if any
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.file == nil {
		l.writer = nil
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	return err
}

// maybeRotateLog rotates the file once it has grown past rotationSize.
// When the file cannot be moved aside, logging continues in it and the
// rotation error is returned.
func (l *AuditLogger) maybeRotateLog() error {
	if l.file == nil || l.rotationSize <= 0 || l.currentSize < l.rotationSize {
		return nil
	}

	l.file.Close()
	l.file = nil
	l.writer = nil

	timestamp := time.Now().Format("20060102-150405.000000000")
	rotatedPath := fmt.Sprintf("%s.%s", l.logPath, timestamp)
	renameErr := l.rename(l.logPath, rotatedPath)
	if renameErr == nil {
		l.cleanupOldLogs()
	}

	if err := l.openFile(); err != nil {
		return err
	}
	if renameErr != nil {
		return fmt.Errorf("failed to rotate log file: %w", renameErr)
	}
	return nil
}

// cleanupOldLogs removes rotated files older than the retention period
func (l *AuditLogger) cleanupOldLogs() {
	if l.logRetention <= 0 {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -l.logRetention)

	files, err := filepath.Glob(l.logPath + ".*")
	if err != nil {
		return
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoffTime) {
			os.Remove(file)
		}
	}
}

// LogEvent writes one audit event
func (l *AuditLogger) LogEvent(event AuditLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("audit logger is closed")
	}
	if l.writer == nil && l.logPath != "" {
		if err := l.openFile(); err != nil {
			return err
		}
	}
	if l.writer == nil {
		return fmt.Errorf("audit logger has no writer")
	}

	rotateErr := l.maybeRotateLog()
	if l.writer == nil {
		return rotateErr
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if event.RequestID == "" {
		event.RequestID = utils.NewRequestID()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	entry, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	n, err := fmt.Fprintln(l.writer, string(entry))
	if err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}
	l.currentSize += int64(n)

	return rotateErr
}

// LogRedaction records the outcome of a redaction pass. How much of each
// match is written depends on the logger's level.
func (l *AuditLogger) LogRedaction(requestID string, rec *RedactedRecord, summary utils.RedactionSummary) error {
	event := AuditLog{
		RequestID:      requestID,
		EventType:      "redaction",
		Severity:       SeverityInfo,
		SectionCount:   len(rec.keys),
		RedactionCount: len(summary),
		Categories:     summary.CountByCategory(),
		Timestamp:      rec.RedactionTimestamp.UTC().Format(time.RFC3339Nano),
	}

	if l.level != AuditLogLevelMinimal {
		for _, e := range summary {
			entry := AuditEntry{Section: e.Section, Category: e.Category}
			if l.level == AuditLogLevelVerbose {
				entry.Match = e.Match
			} else {
				entry.Fingerprint = fingerprint(e.Match)
			}
			event.Entries = append(event.Entries, entry)
		}
	}

	if rec.table != nil {
		event.Metadata = map[string]string{
			"pattern_table_version": rec.table.Version(),
			"pattern_table_hash":    rec.table.Hash(),
		}
	}

	for _, w := range rec.Warnings {
		event.Severity = SeverityWarning
		event.Warnings = append(event.Warnings, w.Error())
	}

	return l.LogEvent(event)
}

// LogFailure records a request that did not complete
func (l *AuditLogger) LogFailure(requestID, stage string, err error) error {
	return l.LogEvent(AuditLog{
		RequestID: requestID,
		EventType: "processing_failed",
		Severity:  SeverityError,
		Metadata: map[string]string{
			"stage": stage,
			"error": err.Error(),
		},
	})
}

// fingerprint hashes matched text so identical values can be correlated
// without storing them
func fingerprint(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:8])
}

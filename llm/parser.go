package llm

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/SamuelRCrider/rfq-scrub/core"
)

const (
	// fallbackPrefixLen is how many characters of an unparseable reply are kept
	fallbackPrefixLen = 500

	// ellipsis marks the truncated fallback text
	ellipsis = "..."

	// rawContentSection is the extracted_sections marker of a fallback record
	rawContentSection = "raw_content"

	// fallbackConfidence is the confidence assigned to a fallback record
	fallbackConfidence = 0.5
)

var (
	errNoObject   = errors.New("no brace-delimited object in response")
	errNoSections = errors.New("decoded object has no recognized section keys")
)

// ResponseParser turns a model reply into a record. It never fails: a
// reply without a usable JSON object degrades to a fallback record.
type ResponseParser struct {
	logger *log.Logger
}

// NewResponseParser creates a parser. A nil logger discards log output.
func NewResponseParser(logger *log.Logger) *ResponseParser {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ResponseParser{logger: logger}
}

// Parse extracts the record embedded in raw
func (p *ResponseParser) Parse(raw string) *core.Record {
	rec, err := decodeEmbeddedRecord(raw)
	if err != nil {
		p.logger.Printf("Warning: failed to parse extraction response, using fallback: %v", err)
		return fallbackRecord(raw)
	}
	return rec
}

// decodeEmbeddedRecord finds the JSON object in raw. The greedy span from
// the first '{' to the last '}' is tried first; if it does not decode, the
// first complete object starting at the first '{' is used, which tolerates
// trailing text containing braces.
func decodeEmbeddedRecord(raw string) (*core.Record, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, errNoObject
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		dec := json.NewDecoder(strings.NewReader(raw[start:]))
		obj = nil
		if err2 := dec.Decode(&obj); err2 != nil {
			return nil, err
		}
	}
	if obj == nil {
		return nil, errNoObject
	}

	rec, overlap := core.RecordFromMap(obj)
	if !overlap {
		return nil, errNoSections
	}
	return rec, nil
}

// fallbackRecord keeps the leading text of raw in scope_of_work
func fallbackRecord(raw string) *core.Record {
	rec := core.NewRecord()
	rec.Set(core.SectionScopeOfWork, truncateRunes(raw, fallbackPrefixLen)+ellipsis)
	rec.SetExtractedSections([]string{rawContentSection})
	rec.SetConfidenceScore(fallbackConfidence)
	return rec
}

// truncateRunes returns at most n characters of s. Invalid UTF-8 bytes
// each count as one character and are replaced with U+FFFD.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

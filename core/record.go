package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// NotSpecified is the sentinel held by a section the extraction did not find
const NotSpecified = "Not specified"

// Section keys in their defined order
const (
	SectionProjectOverview        = "project_overview"
	SectionScopeOfWork            = "scope_of_work"
	SectionDeliverables           = "deliverables"
	SectionTimeline               = "timeline"
	SectionLocation               = "location"
	SectionSubmissionRequirements = "submission_requirements"
	SectionTechnicalRequirements  = "technical_requirements"
	SectionQualifications         = "qualifications"
	SectionEvaluationCriteria     = "evaluation_criteria"
)

// Metadata keys that never hold section content
const (
	KeyExtractedSections  = "extracted_sections"
	KeyConfidenceScore    = "confidence_score"
	KeyRedactionApplied   = "redaction_applied"
	KeyRedactionTimestamp = "redaction_timestamp"
)

var sectionKeys = []string{
	SectionProjectOverview,
	SectionScopeOfWork,
	SectionDeliverables,
	SectionTimeline,
	SectionLocation,
	SectionSubmissionRequirements,
	SectionTechnicalRequirements,
	SectionQualifications,
	SectionEvaluationCriteria,
}

var metadataKeys = map[string]bool{
	KeyExtractedSections:  true,
	KeyConfidenceScore:    true,
	KeyRedactionApplied:   true,
	KeyRedactionTimestamp: true,
}

// SectionKeys returns the recognized section keys in their defined order
func SectionKeys() []string {
	keys := make([]string, len(sectionKeys))
	copy(keys, sectionKeys)
	return keys
}

// IsSectionKey reports whether key is one of the recognized section keys
func IsSectionKey(key string) bool {
	for _, k := range sectionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Record is the structured business summary of one solicitation.
// Every recognized section is always present; extra sections decoded from
// model output follow them in sorted key order. The zero value holds no
// sections until the first Set, which fills in the recognized ones.
type Record struct {
	keys   []string
	values map[string]any

	// Section keys the extraction reported as found
	ExtractedSections []string

	// Extraction confidence in [0,1]
	ConfidenceScore float64
}

// NewRecord creates a record with every recognized section set to NotSpecified
func NewRecord() *Record {
	r := &Record{ExtractedSections: []string{}}
	r.ensureSections()
	return r
}

// ensureSections gives a zero Record its recognized sections
func (r *Record) ensureSections() {
	if r.values != nil {
		return
	}
	r.keys = SectionKeys()
	r.values = make(map[string]any, len(sectionKeys))
	for _, k := range sectionKeys {
		r.values[k] = NotSpecified
	}
}

// Keys returns the section keys in iteration order
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Get returns the value of a section
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns a section's value as a string, or "" when it is absent or not a string
func (r *Record) Text(key string) string {
	s, _ := r.values[key].(string)
	return s
}

// Set assigns a section value. Metadata keys are rejected.
func (r *Record) Set(key string, value any) error {
	if metadataKeys[key] {
		return fmt.Errorf("%q is a metadata field, not a section", key)
	}
	r.ensureSections()
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
		r.sortExtras()
	}
	r.values[key] = value
	return nil
}

// SetExtractedSections replaces the extracted section set, dropping duplicates
func (r *Record) SetExtractedSections(sections []string) {
	seen := make(map[string]bool, len(sections))
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	r.ExtractedSections = out
}

// SetConfidenceScore stores the score clamped to [0,1]; NaN becomes 0
func (r *Record) SetConfidenceScore(score float64) {
	switch {
	case math.IsNaN(score) || score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	r.ConfidenceScore = score
}

// sortExtras keeps recognized keys first and the rest sorted
func (r *Record) sortExtras() {
	extras := r.keys[len(sectionKeys):]
	sort.Strings(extras)
}

// emptyLike returns a record with r's metadata and no section values,
// ready to be filled key by key.
func (r *Record) emptyLike() *Record {
	out := &Record{
		keys:            r.Keys(),
		values:          make(map[string]any, len(r.values)),
		ConfidenceScore: r.ConfidenceScore,
	}
	out.ExtractedSections = append([]string{}, r.ExtractedSections...)
	return out
}

// RecordFromMap builds a record from a decoded JSON object. Recognized keys
// missing from m get NotSpecified, metadata keys are normalized, unknown keys
// become extra sections. overlap reports whether m held any recognized key.
func RecordFromMap(m map[string]any) (rec *Record, overlap bool) {
	rec = NewRecord()
	for key, value := range m {
		switch {
		case key == KeyExtractedSections:
			rec.SetExtractedSections(stringList(value))
		case key == KeyConfidenceScore:
			if f, ok := value.(float64); ok {
				rec.SetConfidenceScore(f)
			}
		case metadataKeys[key]:
			// redaction metadata from a previous pass is not carried into a new record
		case IsSectionKey(key):
			overlap = true
			if value == nil {
				value = NotSpecified
			}
			rec.values[key] = value
		default:
			rec.Set(key, value)
		}
	}
	return rec, overlap
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// MarshalJSON writes the record as one flat object in section order
func (r *Record) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	r.writeFields(w)
	return w.close()
}

// UnmarshalJSON decodes a flat record object
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	rec, _ := RecordFromMap(m)
	*r = *rec
	return nil
}

func (r *Record) writeFields(w *objectWriter) {
	for _, k := range r.keys {
		w.field(k, r.values[k])
	}
	sections := r.ExtractedSections
	if sections == nil {
		sections = []string{}
	}
	w.field(KeyExtractedSections, sections)
	w.field(KeyConfidenceScore, r.ConfidenceScore)
}

// RedactedRecord is a record after a redaction pass
type RedactedRecord struct {
	Record

	// Always true once the pass completed
	RedactionApplied bool

	// Completion instant, UTC
	RedactionTimestamp time.Time

	// Sections that could not be scanned, in section order
	Warnings []*SectionError

	// table that produced this record
	table *PatternTable
}

// MarshalJSON writes the redacted record with the redaction metadata appended
func (r *RedactedRecord) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	r.writeFields(w)
	w.field(KeyRedactionApplied, r.RedactionApplied)
	w.field(KeyRedactionTimestamp, r.RedactionTimestamp.UTC().Format(time.RFC3339Nano))
	return w.close()
}

// objectWriter emits a JSON object with keys in insertion order
type objectWriter struct {
	buf   bytes.Buffer
	count int
	err   error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value any) {
	if w.err != nil {
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("failed to encode %q: %w", key, err)
		return
	}
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
	w.count++
}

func (w *objectWriter) close() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

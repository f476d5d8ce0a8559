package core

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/SamuelRCrider/rfq-scrub/utils"
)

// Redactor applies a pattern table to every string section of a record.
// It holds no per-request state and may be shared across goroutines.
type Redactor struct {
	table  *PatternTable
	logger *log.Logger
	now    func() time.Time
}

// NewRedactor creates a redactor over table. A nil table selects the
// default table; a nil logger discards log output.
func NewRedactor(table *PatternTable, logger *log.Logger) *Redactor {
	if table == nil {
		table = DefaultPatternTable()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Redactor{
		table:  table,
		logger: logger,
		now:    time.Now,
	}
}

// Table returns the pattern table in use
func (r *Redactor) Table() *PatternTable {
	return r.table
}

// Redact returns a redacted copy of rec and the ordered audit trail of
// every match removed. rec itself is not modified. Sections holding
// non-string values are copied through untouched and reported in the
// result's Warnings. A nil or zero record is treated as one with every
// section NotSpecified.
func (r *Redactor) Redact(rec *Record) (*RedactedRecord, utils.RedactionSummary) {
	switch {
	case rec == nil:
		rec = NewRecord()
	case rec.values == nil:
		filled := *rec
		filled.ensureSections()
		rec = &filled
	}

	out := &RedactedRecord{Record: *rec.emptyLike(), table: r.table}
	summary := utils.RedactionSummary{}

	for _, key := range rec.keys {
		value := rec.values[key]

		text, ok := value.(string)
		if !ok {
			out.values[key] = value
			out.Warnings = append(out.Warnings, &SectionError{
				Section: key,
				Err:     fmt.Errorf("%w: %T", ErrUnexpectedValue, value),
			})
			continue
		}

		redacted, entries := r.redactText(key, text)
		out.values[key] = redacted
		summary = append(summary, entries...)
	}

	out.RedactionApplied = true
	out.RedactionTimestamp = r.now().UTC()

	for _, w := range out.Warnings {
		r.logger.Printf("Warning: section skipped during redaction: %v", w)
	}
	r.logger.Printf("Content redaction completed. %d items redacted, %d sections skipped",
		len(summary), len(out.Warnings))

	return out, summary
}

// redactText runs every rule over text in table order. Each rule sees the
// output of the rules before it.
func (r *Redactor) redactText(section, text string) (string, []utils.RedactionEntry) {
	var entries []utils.RedactionEntry

	for _, category := range r.table.categories {
		for _, rule := range category.Rules {
			locs := rule.re.FindAllStringIndex(text, -1)
			if len(locs) == 0 {
				continue
			}
			for _, loc := range locs {
				entries = append(entries, utils.RedactionEntry{
					Section:  section,
					Category: category.Name,
					Match:    text[loc[0]:loc[1]],
				})
			}
			text = ApplyRedactions(text, locs)
		}
	}

	return text, entries
}

// ApplyRedactions replaces each [start, end) span in locs with the
// placeholder. locs must be sorted and non-overlapping, as returned by
// regexp's FindAll*Index functions.
func ApplyRedactions(text string, locs [][]int) string {
	if len(locs) == 0 {
		return text
	}

	var builder strings.Builder
	lastIndex := 0

	for _, loc := range locs {
		builder.WriteString(text[lastIndex:loc[0]])
		builder.WriteString(Placeholder)
		lastIndex = loc[1]
	}

	if lastIndex < len(text) {
		builder.WriteString(text[lastIndex:])
	}

	return builder.String()
}

package core

import "time"

// PatternTableBuilder provides a fluent interface for describing pattern tables
type PatternTableBuilder struct {
	cfg *PatternTableConfig
}

// NewPatternTableBuilder creates a new builder
func NewPatternTableBuilder() *PatternTableBuilder {
	now := time.Now().UTC()
	return &PatternTableBuilder{
		cfg: &PatternTableConfig{
			Metadata: PatternTableMetadata{
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
	}
}

// WithMetadata sets the table metadata
func (b *PatternTableBuilder) WithMetadata(version, description, author string) *PatternTableBuilder {
	b.cfg.Metadata.Version = version
	b.cfg.Metadata.Description = description
	b.cfg.Metadata.Author = author
	return b
}

// AddCategory starts a new category; subsequent patterns are added to it
func (b *PatternTableBuilder) AddCategory(name, description string) *PatternTableBuilder {
	b.cfg.Categories = append(b.cfg.Categories, CategorySpec{
		Name:        name,
		Description: description,
	})
	return b
}

// AddPattern appends a pattern to the last added category
func (b *PatternTableBuilder) AddPattern(expr string) *PatternTableBuilder {
	if len(b.cfg.Categories) == 0 {
		// Patterns without a category land in an unnamed one, which fails validation
		b.cfg.Categories = append(b.cfg.Categories, CategorySpec{})
	}
	last := &b.cfg.Categories[len(b.cfg.Categories)-1]
	last.Patterns = append(last.Patterns, expr)
	return b
}

// Build returns the configuration
func (b *PatternTableBuilder) Build() *PatternTableConfig {
	return b.cfg
}

// Compile builds and compiles the table in one step
func (b *PatternTableBuilder) Compile() (*PatternTable, error) {
	return CompilePatternTable(b.Build())
}

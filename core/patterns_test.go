package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPatternTable(t *testing.T) {
	table := DefaultPatternTable()

	assert.Equal(t, []string{
		CategoryGovernmentAgencies,
		CategoryContactInfo,
		CategoryFederalCodes,
		CategorySpecificLocations,
	}, table.CategoryNames())

	for _, category := range table.Categories() {
		assert.NotEmpty(t, category.Rules, category.Name)
		for i, rule := range category.Rules {
			assert.Equal(t, category.Name, rule.Category)
			assert.Equal(t, i, rule.Index)
			assert.False(t, rule.Regexp().MatchString(Placeholder), rule.Expr)
		}
	}
}

func TestPatternTableCategoriesIsACopy(t *testing.T) {
	table := DefaultPatternTable()

	categories := table.Categories()
	categories[0].Name = "changed"
	categories[0].Rules[0].Expr = "changed"

	fresh := table.Categories()
	assert.Equal(t, CategoryGovernmentAgencies, fresh[0].Name)
	assert.NotEqual(t, "changed", fresh[0].Rules[0].Expr)
}

func TestPatternsAreCaseInsensitive(t *testing.T) {
	for _, category := range DefaultPatternTable().Categories() {
		for _, rule := range category.Rules {
			assert.NotContains(t, rule.Expr, "(?-i", "%s rule %d", category.Name, rule.Index)
		}
	}

	agencies := DefaultPatternTable().Categories()[0]
	var matched bool
	for _, rule := range agencies.Rules {
		if rule.Regexp().MatchString("the dod office") {
			matched = true
		}
	}
	assert.True(t, matched)
}

func TestCompilePatternTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *PatternTableConfig
		category string
		index    int
	}{
		{
			name:  "nil config",
			cfg:   nil,
			index: -1,
		},
		{
			name:  "no categories",
			cfg:   &PatternTableConfig{},
			index: -1,
		},
		{
			name: "unnamed category",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Patterns: []string{`\bfoo\b`}},
			}},
			index: -1,
		},
		{
			name: "duplicate category",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a", Patterns: []string{`\bfoo\b`}},
				{Name: "a", Patterns: []string{`\bbar\b`}},
			}},
			category: "a",
			index:    -1,
		},
		{
			name: "category without patterns",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a"},
			}},
			category: "a",
			index:    -1,
		},
		{
			name: "empty pattern",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a", Patterns: []string{`\bfoo\b`, ""}},
			}},
			category: "a",
			index:    1,
		},
		{
			name: "invalid regex",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a", Patterns: []string{`([a-z`}},
			}},
			category: "a",
			index:    0,
		},
		{
			name: "matches empty string",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a", Patterns: []string{`\d*`}},
			}},
			category: "a",
			index:    0,
		},
		{
			name: "matches placeholder",
			cfg: &PatternTableConfig{Categories: []CategorySpec{
				{Name: "a", Patterns: []string{`\bfoo\b`}},
				{Name: "b", Patterns: []string{`redacted`}},
			}},
			category: "b",
			index:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := CompilePatternTable(tt.cfg)
			assert.Nil(t, table)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.category, cfgErr.Category)
			assert.Equal(t, tt.index, cfgErr.Index)
		})
	}
}

func TestMustCompilePatternTablePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustCompilePatternTable(&PatternTableConfig{})
	})
}

func TestPatternTableBuilder(t *testing.T) {
	table, err := NewPatternTableBuilder().
		WithMetadata("2.0.0", "Test table", "Test Author").
		AddCategory("codenames", "Project codenames").
		AddPattern(`\bProject\s+Zeus\b`).
		AddPattern(`\bProject\s+Hera\b`).
		AddCategory("badges", "Badge numbers").
		AddPattern(`\bBadge\s+\d{4}\b`).
		Compile()
	require.NoError(t, err)

	assert.Equal(t, []string{"codenames", "badges"}, table.CategoryNames())
	assert.Len(t, table.Categories()[0].Rules, 2)

	// a pattern added before any category cannot form a valid table
	_, err = NewPatternTableBuilder().AddPattern(`\bfoo\b`).Compile()
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoadPatternTableMatchesDefault(t *testing.T) {
	table, err := LoadPatternTable(filepath.Join("..", "config", "redaction_patterns.yaml"))
	require.NoError(t, err)

	assert.Len(t, table.Hash(), 64)
	assert.Equal(t, DefaultPatternConfig().Categories, table.Config().Categories)
}

func TestSaveAndLoadPatternConfig(t *testing.T) {
	cfg := NewPatternTableBuilder().
		WithMetadata("1.2.0", "Saved table", "Test Author").
		AddCategory("codenames", "Project codenames").
		AddPattern(`\bProject\s+Zeus\b`).
		Build()

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, SavePatternConfig(cfg, path))

	table, err := LoadPatternTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"codenames"}, table.CategoryNames())
	assert.NotEmpty(t, table.Hash())

	// the hash describes the file and is never written into it
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash:")
}

func TestLoadPatternTableErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPatternTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("categories: [\n"), 0o644))
	_, err = LoadPatternTable(malformed)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	content := "categories:\n  - name: broken\n    patterns:\n      - '([a-z'\n"
	require.NoError(t, os.WriteFile(invalid, []byte(content), 0o644))
	_, err = LoadPatternTable(invalid)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "broken", cfgErr.Category)
	assert.Contains(t, err.Error(), invalid)
}

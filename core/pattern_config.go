package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PatternTableMetadata contains information about a pattern table file
type PatternTableMetadata struct {
	// Version of the table
	Version string `yaml:"version"`

	// When the table was created
	CreatedAt time.Time `yaml:"created_at,omitempty"`

	// Last modification time
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`

	// Description of the table
	Description string `yaml:"description,omitempty"`

	// Author of the table
	Author string `yaml:"author,omitempty"`

	// SHA-256 of the file content, set on load
	Hash string `yaml:"hash,omitempty"`
}

// CategorySpec is one category as written in configuration
type CategorySpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Patterns    []string `yaml:"patterns"`
}

// PatternTableConfig is the serialized form of a pattern table.
// Category order is significant: it is the order redaction applies them in.
type PatternTableConfig struct {
	Metadata   PatternTableMetadata `yaml:"metadata"`
	Categories []CategorySpec       `yaml:"categories"`
}

// LoadPatternTable reads a YAML pattern table file and compiles it
func LoadPatternTable(path string) (*PatternTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern table: %w", err)
	}

	var cfg PatternTableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pattern table: %w", err)
	}

	// Hash for integrity checking
	cfg.Metadata.Hash = calculateConfigHash(data)

	table, err := CompilePatternTable(&cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern table %s: %w", path, err)
	}
	return table, nil
}

// SavePatternConfig writes a pattern table configuration as YAML
func SavePatternConfig(cfg *PatternTableConfig, path string) error {
	cfg.Metadata.UpdatedAt = time.Now().UTC()

	data, err := MarshalPatternConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pattern table: %w", err)
	}
	return nil
}

// MarshalPatternConfig serializes a configuration to YAML. The hash is not
// written since it describes the file it was read from.
func MarshalPatternConfig(cfg *PatternTableConfig) ([]byte, error) {
	out := *cfg
	out.Metadata.Hash = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize pattern table: %w", err)
	}
	return data, nil
}

// categoriesHash identifies a table built in code by its categories
func categoriesHash(categories []CategorySpec) string {
	data, err := yaml.Marshal(categories)
	if err != nil {
		return ""
	}
	return calculateConfigHash(data)
}

// calculateConfigHash generates a hash of the table content for integrity checking
func calculateConfigHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

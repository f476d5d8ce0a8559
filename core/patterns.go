package core

import (
	"errors"
	"fmt"
	"regexp"
)

// Placeholder replaces every redacted match
const Placeholder = "[REDACTED]"

// Category names of the built-in pattern table
const (
	CategoryGovernmentAgencies = "government_agencies"
	CategoryContactInfo        = "contact_info"
	CategoryFederalCodes       = "federal_codes"
	CategorySpecificLocations  = "specific_locations"
)

// PatternRule is one compiled pattern of a category
type PatternRule struct {
	Category string
	Index    int
	Expr     string
	re       *regexp.Regexp
}

// Regexp returns the compiled, case-insensitive expression
func (p PatternRule) Regexp() *regexp.Regexp {
	return p.re
}

// PatternCategory is an ordered group of rules sharing a category name
type PatternCategory struct {
	Name        string
	Description string
	Rules       []PatternRule
}

// PatternTable is the immutable, validated set of redaction patterns.
// It is safe for concurrent use.
type PatternTable struct {
	categories []PatternCategory
	version    string
	hash       string
}

var defaultTable = newDefaultPatternTable()

func newDefaultPatternTable() *PatternTable {
	cfg := DefaultPatternConfig()
	cfg.Metadata.Hash = categoriesHash(cfg.Categories)
	return MustCompilePatternTable(cfg)
}

// DefaultPatternTable returns the built-in table, compiled once at startup
func DefaultPatternTable() *PatternTable {
	return defaultTable
}

// CompilePatternTable validates and compiles a pattern configuration.
// Any invalid category or pattern yields a *ConfigError.
func CompilePatternTable(cfg *PatternTableConfig) (*PatternTable, error) {
	if cfg == nil || len(cfg.Categories) == 0 {
		return nil, &ConfigError{Index: -1, Err: errors.New("no categories defined")}
	}

	table := &PatternTable{
		categories: make([]PatternCategory, 0, len(cfg.Categories)),
		version:    cfg.Metadata.Version,
		hash:       cfg.Metadata.Hash,
	}
	seen := make(map[string]bool, len(cfg.Categories))

	for _, cs := range cfg.Categories {
		if cs.Name == "" {
			return nil, &ConfigError{Index: -1, Err: errors.New("category has no name")}
		}
		if seen[cs.Name] {
			return nil, &ConfigError{Category: cs.Name, Index: -1, Err: errors.New("duplicate category")}
		}
		seen[cs.Name] = true

		if len(cs.Patterns) == 0 {
			return nil, &ConfigError{Category: cs.Name, Index: -1, Err: errors.New("category has no patterns")}
		}

		category := PatternCategory{
			Name:        cs.Name,
			Description: cs.Description,
			Rules:       make([]PatternRule, 0, len(cs.Patterns)),
		}
		for i, expr := range cs.Patterns {
			re, err := compileRule(expr)
			if err != nil {
				return nil, &ConfigError{Category: cs.Name, Index: i, Pattern: expr, Err: err}
			}
			category.Rules = append(category.Rules, PatternRule{
				Category: cs.Name,
				Index:    i,
				Expr:     expr,
				re:       re,
			})
		}
		table.categories = append(table.categories, category)
	}

	return table, nil
}

// MustCompilePatternTable is like CompilePatternTable but panics on error
func MustCompilePatternTable(cfg *PatternTableConfig) *PatternTable {
	table, err := CompilePatternTable(cfg)
	if err != nil {
		panic(err)
	}
	return table
}

func compileRule(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, errors.New("empty pattern")
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	if re.MatchString("") {
		return nil, errors.New("pattern matches the empty string")
	}
	// A rule that matches its own output would make redaction non-idempotent
	if re.MatchString(Placeholder) {
		return nil, fmt.Errorf("pattern matches the placeholder %s", Placeholder)
	}
	return re, nil
}

// Categories returns the categories in definition order
func (t *PatternTable) Categories() []PatternCategory {
	out := make([]PatternCategory, len(t.categories))
	for i, c := range t.categories {
		c.Rules = append([]PatternRule(nil), c.Rules...)
		out[i] = c
	}
	return out
}

// CategoryNames returns the category names in definition order
func (t *PatternTable) CategoryNames() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Version is the table version from its metadata
func (t *PatternTable) Version() string {
	return t.version
}

// Hash is the SHA-256 of the configuration file the table was loaded from.
// The built-in table hashes its category list instead.
func (t *PatternTable) Hash() string {
	return t.hash
}

// Config converts the table back into its configuration form
func (t *PatternTable) Config() *PatternTableConfig {
	cfg := &PatternTableConfig{
		Metadata: PatternTableMetadata{Version: t.version, Hash: t.hash},
	}
	for _, c := range t.categories {
		cs := CategorySpec{Name: c.Name, Description: c.Description}
		for _, r := range c.Rules {
			cs.Patterns = append(cs.Patterns, r.Expr)
		}
		cfg.Categories = append(cfg.Categories, cs)
	}
	return cfg
}

// DefaultPatternConfig describes the built-in redaction categories.
//
// Every rule matches case-insensitively. Name parts are bounded by keyword
// lists and minimum word lengths instead of capitalization.
func DefaultPatternConfig() *PatternTableConfig {
	return NewPatternTableBuilder().
		WithMetadata("1.1.0", "Government solicitation redaction patterns", "rfq-scrub").
		AddCategory(CategoryGovernmentAgencies, "Agency names and abbreviations").
		AddPattern(`\bDepartment\s+of\s+(?:the\s+)?(?:Agriculture|Commerce|Defense|Education|Energy|Health\s+and\s+Human\s+Services|Homeland\s+Security|Housing\s+and\s+Urban\s+Development|Justice|Labor|State|Interior|Treasury|Transportation|Veterans\s+Affairs|Army|Navy|Air\s+Force)\b`).
		AddPattern(`\bU\.S\.\s+[A-Za-z\s]+?\s+Administration\b`).
		AddPattern(`\b(?:U\.S\.\s+)?(?:(?:Air\s+Force|Army|Navy|Naval|Marine\s+Corps|Space\s+Force|Coast\s+Guard|Joint)\s+)?(?:AFMC|AMC|ACC|AETC|AFSOC|AFGSC|AFRC|PACAF|NAVSEA|NAVAIR|NAVSUP|NAVFAC|NAVWAR|TRADOC|FORSCOM|MEDCOM|INSCOM|SOCOM|USSOCOM|Air|Sea|Materiel|Systems|Supply|Facilities|Engineering|Mobility|Combat|Training|Education|Military|Sealift|Cyber|Space|Medical|Logistics|Special\s+Operations|Transportation|Central|Southern|Northern|European|Africa|Pacific|Indo-Pacific|Strategic|Intelligence|Contracting|Installations?|Reserve|Forces|Futures|Global\s+Strike)(?:\s+(?:and\s+)?(?:Air|Sea|Materiel|Systems|Supply|Facilities|Engineering|Mobility|Combat|Training|Education|Sealift|Medical|Logistics|Special\s+Operations|Strike|Management)){0,2}\s+Command\b`).
		AddPattern(`\b(VA|GSA|DOD|DHS|USACE|NAVY|ARMY|AIR FORCE|MARINES)\b`).
		AddCategory(CategoryContactInfo, "Email addresses, phone numbers and URLs").
		AddPattern(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`).
		AddPattern(`(?:\+1[-. ]?)?(?:\(\d{3}\)[-. ]?|\b\d{3}[-. ]?)\d{3}[-. ]?\d{4}\b`).
		AddPattern(`\bhttps?://[^\s]+\b`).
		AddPattern(`\bwww\.[^\s]+\b`).
		AddCategory(CategoryFederalCodes, "Labeled federal registration and reference numbers").
		AddPattern(`\bDUNS\s*(?:#|No\.?|Number)?\s*:?\s*\d+\b`).
		AddPattern(`\bUEI\s*(?:#|No\.?|Number)?\s*:?\s*[A-Z0-9]*\d[A-Z0-9]*\b`).
		AddPattern(`\bSAM\s*(?:#|No\.?|Number|ID)?\s*:?\s*[A-Z0-9]*\d[A-Z0-9]*\b`).
		AddPattern(`\bCAGE\s*(?:#|No\.?|Code)?\s*:?\s*[A-Z0-9]*\d[A-Z0-9]*\b`).
		AddPattern(`\bSolicitation\s*(?:#|No\.?|Number)?\s*:?\s*[A-Z0-9-]*\d[A-Z0-9-]*\b`).
		AddPattern(`\bContract\s*(?:#|No\.?|Number)?\s*:?\s*[A-Z0-9-]*\d[A-Z0-9-]*\b`).
		AddCategory(CategorySpecificLocations, "Street addresses, buildings and installations").
		AddPattern(`\b\d+\s+(?:[A-Za-z]+\s+){1,4}?(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Boulevard|Blvd)\b`).
		AddPattern(`\b(?:[A-Za-z][A-Za-z-]{3,}\s+){0,2}Building\s+\d+[A-Za-z]?\b`).
		AddPattern(`\b(?:Fort|Camp|Naval\s+(?:Air\s+|Weapons\s+|Submarine\s+)?(?:Station|Base)|Joint\s+(?:Reserve\s+)?Base|Marine\s+Corps\s+(?:Base|Air\s+Station))\s+[A-Za-z][A-Za-z-]{2,}\b`).
		AddPattern(`\b(?:[A-Za-z][A-Za-z-]{3,}\s+){1,2}(?:AFB|ANGB|ARB|(?:Air\s+|Army\s+|Space\s+Force\s+|Air\s+Reserve\s+|Air\s+National\s+Guard\s+|Marine\s+Corps\s+|\[REDACTED\]\s+)?Base|Naval\s+(?:[A-Za-z]+\s+){0,2}?(?:Station|Activity|Shipyard|Base|Center|Facility|Hospital|Academy|Complex))\b`).
		Build()
}

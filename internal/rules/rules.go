// Package rules loads the versioned rule table that drives contact routing,
// merchant classification and audit scoring.
//
// The table ships embedded (default.yaml) and can be replaced at runtime by
// an operator-maintained file, so business vocabulary changes never require a
// rebuild.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Tier keys recognised in the tiers section.
const (
	TierWholesale    = "wholesale"
	TierProfessional = "professional"
	TierPremium      = "premium"
	TierRetail       = "retail"
)

var (
	ErrNoCountries     = errors.New("rule table has no country rules")
	ErrInvalidCode     = errors.New("calling code must be digits only")
	ErrMissingPlatform = errors.New("country rule has no platform")
	ErrUnknownTier     = errors.New("unknown tier key")
	ErrMissingRetail   = errors.New("rule table has no retail tier")
)

// Table is the full rule table.
type Table struct {
	Version         string          `yaml:"version"`
	Overrides       []OverrideRule  `yaml:"overrides"`
	Countries       []CountryRule   `yaml:"countries"`
	Tiers           map[string]Tier `yaml:"tiers"`
	Categories      []Category      `yaml:"categories"`
	DefaultCategory Category        `yaml:"default_category"`
	Scores          map[string]int  `yaml:"scores"`
}

// OverrideRule forces the Telegram channel when its keywords or calling codes match.
type OverrideRule struct {
	Label        string   `yaml:"label"`
	CallingCodes []string `yaml:"calling_codes,omitempty"`
	Keywords     []string `yaml:"keywords,omitempty"`
}

// CountryRule maps a country to its preferred messaging platform.
type CountryRule struct {
	Country       string   `yaml:"country"`
	CallingCode   string   `yaml:"calling_code"`
	Platform      string   `yaml:"platform"`
	TrunkPrefix   string   `yaml:"trunk_prefix,omitempty"`
	LocalPrefixes []string `yaml:"local_prefixes,omitempty"`
	LocalLengths  []int    `yaml:"local_lengths,omitempty"`
	Keywords      []string `yaml:"keywords,omitempty"`
}

// Tier holds the vocabulary and negotiation copy for one merchant tier.
type Tier struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords,omitempty"`
	Strategy string   `yaml:"strategy"`
	Script   string   `yaml:"script,omitempty"`
}

// Category is a product-line tag.
type Category struct {
	Tag      string   `yaml:"tag"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// Default returns the embedded rule table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a rule table from path. An empty path yields the embedded table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML rule table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if t.DefaultCategory.Tag == "" {
		t.DefaultCategory = Category{Tag: "general", Label: "General"}
	}

	return &t, nil
}

// Validate checks the structural invariants of the table.
func (t *Table) Validate() error {
	if len(t.Countries) == 0 {
		return ErrNoCountries
	}

	for _, o := range t.Overrides {
		for _, code := range o.CallingCodes {
			if !isDigits(code) {
				return fmt.Errorf("override %q: %w", o.Label, ErrInvalidCode)
			}
		}
	}

	for _, c := range t.Countries {
		if !isDigits(c.CallingCode) {
			return fmt.Errorf("country %q: %w", c.Country, ErrInvalidCode)
		}
		if strings.TrimSpace(c.Platform) == "" {
			return fmt.Errorf("country %q: %w", c.Country, ErrMissingPlatform)
		}
	}

	for key := range t.Tiers {
		switch key {
		case TierWholesale, TierProfessional, TierPremium, TierRetail:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTier, key)
		}
	}
	if _, ok := t.Tiers[TierRetail]; !ok {
		return ErrMissingRetail
	}

	return nil
}

// Score returns the base audit score for an action; unknown actions score 0.
func (t *Table) Score(action string) int {
	if t == nil {
		return 0
	}
	return t.Scores[action]
}

// HasAction reports whether the table lists a base score for action.
func (t *Table) HasAction(action string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Scores[action]
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package classify scores merchant free text against priority-ordered
// keyword rules to produce a business tier, product category and a
// suggested negotiation strategy.
package classify

import (
	"fmt"
	"strings"

	"leaddesk/internal/keywords"
	"leaddesk/internal/rules"
)

// Tier is a merchant business tier.
type Tier int

const (
	Retail Tier = iota
	Wholesale
	Professional
	Premium
)

var tierKeys = [...]string{
	Retail:       rules.TierRetail,
	Wholesale:    rules.TierWholesale,
	Professional: rules.TierProfessional,
	Premium:      rules.TierPremium,
}

// priority is the evaluation order. A shop that is both wholesale and in a
// premium district is always wholesale. Retail is the default, never matched.
var priority = [...]Tier{Wholesale, Professional, Premium}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierKeys) {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierKeys[t]
}

// MarshalText encodes the tier by key.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts a tier key in any case.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier maps a case-insensitive key to a Tier.
func ParseTier(key string) (Tier, error) {
	for i, k := range tierKeys {
		if strings.EqualFold(strings.TrimSpace(key), k) {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", key)
}

// Result is the classification of one merchant.
type Result struct {
	Tier           Tier   `json:"tier"`
	IdentityTag    string `json:"identity_tag"`
	CategoryTag    string `json:"category_tag"`
	CategoryLabel  string `json:"category_label"`
	StrategyText   string `json:"strategy"`
	ScriptText     string `json:"script,omitempty"`
	MatchedKeyword string `json:"matched_keyword,omitempty"`
}

type tierRule struct {
	label    string
	keywords keywords.Set
	strategy string
	script   string
}

type categoryRule struct {
	tag      string
	label    string
	keywords keywords.Set
}

// Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	tiers      map[Tier]tierRule
	categories []categoryRule
	fallback   categoryRule
}

// New compiles a Classifier from the tiers and categories of a rule table.
func New(table *rules.Table) (*Classifier, error) {
	c := &Classifier{
		tiers:      make(map[Tier]tierRule, len(tierKeys)),
		categories: make([]categoryRule, 0, len(table.Categories)),
		fallback: categoryRule{
			tag:   table.DefaultCategory.Tag,
			label: table.DefaultCategory.Label,
		},
	}

	for i, key := range tierKeys {
		t, ok := table.Tiers[key]
		if !ok {
			if Tier(i) == Retail {
				return nil, rules.ErrMissingRetail
			}
			continue
		}
		label := t.Label
		if label == "" {
			label = key
		}
		c.tiers[Tier(i)] = tierRule{
			label:    label,
			keywords: keywords.NewSet(t.Keywords),
			strategy: t.Strategy,
			script:   t.Script,
		}
	}

	for _, cat := range table.Categories {
		c.categories = append(c.categories, categoryRule{
			tag:      cat.Tag,
			label:    cat.Label,
			keywords: keywords.NewSet(cat.Keywords),
		})
	}

	return c, nil
}

// Classify returns the first matching tier in priority order, or Retail.
// The result depends only on text and the compiled table.
func (c *Classifier) Classify(freeText string) Result {
	folded := keywords.Fold(freeText)

	tier := Retail
	var matched string
	for _, t := range priority {
		rule, ok := c.tiers[t]
		if !ok {
			continue
		}
		if w, ok := rule.keywords.Match(folded); ok {
			tier, matched = t, w
			break
		}
	}

	cat := c.fallback
	for _, rule := range c.categories {
		if rule.keywords.Contains(folded) {
			cat = rule
			break
		}
	}

	rule := c.tiers[tier]
	fill := strings.NewReplacer("{category}", cat.label)

	return Result{
		Tier:           tier,
		IdentityTag:    rule.label,
		CategoryTag:    cat.tag,
		CategoryLabel:  cat.label,
		StrategyText:   fill.Replace(rule.strategy),
		ScriptText:     fill.Replace(rule.script),
		MatchedKeyword: matched,
	}
}

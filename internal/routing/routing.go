// Package routing picks the messaging platform and deep link used to reach a
// merchant, from a noisy phone string and free-text context.
package routing

import (
	"errors"
	"fmt"
	"slices"

	"leaddesk/internal/keywords"
	"leaddesk/internal/phone"
	"leaddesk/internal/rules"
)

// FallbackCountry labels routes that matched no rule.
const FallbackCountry = "Global"

var ErrUnknownPlatform = errors.New("unknown platform")

// Route is the chosen channel for one contact.
type Route struct {
	CountryLabel string   `json:"country"`
	Platform     Platform `json:"platform"`
	DeepLink     string   `json:"deep_link"`
}

type overrideRule struct {
	label    string
	codes    []string
	keywords keywords.Set
}

type countryRule struct {
	country       string
	callingCode   string
	platform      Platform
	trunk         string
	localPrefixes []string
	localLengths  []int
	keywords      keywords.Set
}

// matches applies the three country tests: context keyword, international
// calling code, or a local-format number.
func (c *countryRule) matches(digits, folded string) bool {
	if c.keywords.Contains(folded) {
		return true
	}
	if phone.HasAnyPrefix(digits, c.callingCode) {
		return true
	}
	return slices.Contains(c.localLengths, len(digits)) && phone.HasAnyPrefix(digits, c.localPrefixes...)
}

// Router resolves contacts to routes. It is immutable and safe for
// concurrent use.
type Router struct {
	overrides []overrideRule
	countries []countryRule
}

// New compiles a Router from the override and country sections of a rule table.
// Country rules keep their table order.
func New(table *rules.Table) (*Router, error) {
	r := &Router{
		overrides: make([]overrideRule, 0, len(table.Overrides)),
		countries: make([]countryRule, 0, len(table.Countries)),
	}

	for _, o := range table.Overrides {
		r.overrides = append(r.overrides, overrideRule{
			label:    o.Label,
			codes:    o.CallingCodes,
			keywords: keywords.NewSet(o.Keywords),
		})
	}

	for _, c := range table.Countries {
		p, err := ParsePlatform(c.Platform)
		if err != nil {
			return nil, fmt.Errorf("country %q: %w", c.Country, err)
		}
		r.countries = append(r.countries, countryRule{
			country:       c.Country,
			callingCode:   c.CallingCode,
			platform:      p,
			trunk:         c.TrunkPrefix,
			localPrefixes: c.LocalPrefixes,
			localLengths:  c.LocalLengths,
			keywords:      keywords.NewSet(c.Keywords),
		})
	}

	return r, nil
}

// Route picks exactly one platform for a contact. The first matching rule
// wins: overrides, then country rules in order, then the WhatsApp fallback.
// Route never fails; an empty phone still yields a well-formed link.
func (r *Router) Route(phoneRaw, freeText string) Route {
	digits := phone.Normalize(phoneRaw)
	folded := keywords.Fold(freeText)

	for _, o := range r.overrides {
		if o.keywords.Contains(folded) || phone.HasAnyPrefix(digits, o.codes...) {
			return Route{
				CountryLabel: o.label,
				Platform:     Telegram,
				DeepLink:     DeepLink(Telegram, digits),
			}
		}
	}

	for i := range r.countries {
		c := &r.countries[i]
		if !c.matches(digits, folded) {
			continue
		}
		national := phone.National(digits, c.trunk, c.callingCode)
		return Route{
			CountryLabel: c.country,
			Platform:     c.platform,
			DeepLink:     DeepLink(c.platform, c.callingCode+national),
		}
	}

	return Route{
		CountryLabel: FallbackCountry,
		Platform:     WhatsApp,
		DeepLink:     DeepLink(WhatsApp, digits),
	}
}

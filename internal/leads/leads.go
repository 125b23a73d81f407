// Package leads combines contact routing and merchant classification behind a
// single analyzer whose rule table can be swapped at runtime.
package leads

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"leaddesk/internal/classify"
	"leaddesk/internal/routing"
	"leaddesk/internal/rules"
)

// ErrNilTable is returned when an analyzer is built without a rule table.
var ErrNilTable = errors.New("rule table is nil")

// Contact is the raw lead input as typed by an operator.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Source  string `json:"source,omitempty"`
}

// Text returns the free text used for keyword matching: name, address and
// the data-source label when present.
func (c Contact) Text() string {
	return strings.Join(strings.Fields(c.Name+" "+c.Address+" "+c.Source), " ")
}

// SocialLinks are search URLs for a manual background check on the merchant.
type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	TikTok    string `json:"tiktok"`
}

// Analysis is the combined routing and classification result for a contact.
type Analysis struct {
	Route          routing.Route   `json:"route"`
	Classification classify.Result `json:"classification"`
	Social         SocialLinks     `json:"social"`
	RulesVersion   string          `json:"rules_version"`
}

type engine struct {
	table      *rules.Table
	router     *routing.Router
	classifier *classify.Classifier
}

// Analyzer is safe for concurrent use. Reload replaces the whole engine at
// once so a call never mixes routes from one table with tiers from another.
type Analyzer struct {
	current atomic.Pointer[engine]
}

// New builds an Analyzer over table.
func New(table *rules.Table) (*Analyzer, error) {
	a := &Analyzer{}
	if err := a.Reload(table); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload validates table and swaps it in. On error the previous table stays active.
func (a *Analyzer) Reload(table *rules.Table) error {
	e, err := build(table)
	if err != nil {
		return err
	}
	a.current.Store(e)
	return nil
}

func build(table *rules.Table) (*engine, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	router, err := routing.New(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	classifier, err := classify.New(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	return &engine{table: table, router: router, classifier: classifier}, nil
}

// Table returns the active rule table.
func (a *Analyzer) Table() *rules.Table {
	return a.current.Load().table
}

// Score returns the base audit score for action under the active table.
func (a *Analyzer) Score(action string) int {
	return a.Table().Score(action)
}

// KnownAction reports whether the active table scores action.
func (a *Analyzer) KnownAction(action string) bool {
	return a.Table().HasAction(action)
}

// Analyze routes and classifies c.
func (a *Analyzer) Analyze(c Contact) Analysis {
	e := a.current.Load()
	text := c.Text()
	return Analysis{
		Route:          e.router.Route(c.Phone, text),
		Classification: e.classifier.Classify(text),
		Social:         Social(c.Name),
		RulesVersion:   e.table.Version,
	}
}

// Social builds the lookup URLs for a merchant name.
func Social(name string) SocialLinks {
	name = strings.TrimSpace(name)
	q := url.QueryEscape(name)
	tag := url.PathEscape(strings.Join(strings.Fields(name), ""))
	return SocialLinks{
		Facebook:  "https://www.facebook.com/search/top/?q=" + q,
		Instagram: "https://www.instagram.com/explore/tags/" + tag + "/",
		TikTok:    "https://www.tiktok.com/search?q=" + q,
	}
}

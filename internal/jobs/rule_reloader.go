package jobs

import (
	"context"
	"log"
	"os"
	"time"

	"leaddesk/internal/rules"
)

// TableSwapper accepts a freshly loaded rule table.
type TableSwapper interface {
	Reload(table *rules.Table) error
}

// RuleReloader polls a rule file and swaps in a new table whenever the file
// changes. A file that fails to load leaves the active table in place.
type RuleReloader struct {
	path     string
	interval time.Duration
	target   TableSwapper
	onError  func(path string, err error)

	modTime time.Time
	size    int64
}

// NewRuleReloader creates a reloader for path. onError may be nil.
func NewRuleReloader(path string, interval time.Duration, target TableSwapper, onError func(string, error)) *RuleReloader {
	r := &RuleReloader{
		path:     path,
		interval: interval,
		target:   target,
		onError:  onError,
	}
	// The file was loaded at startup; only later changes trigger a reload.
	if info, err := os.Stat(path); err == nil {
		r.modTime, r.size = info.ModTime(), info.Size()
	}
	return r
}

// Start begins the background reload loop.
func (r *RuleReloader) Start(ctx context.Context) {
	log.Printf("Rule reloader started (file: %s, interval: %v)", r.path, r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Rule reloader stopped")
			return
		case <-ticker.C:
			r.check()
		}
	}
}

// check reloads the table if the file changed since the last successful or
// failed attempt. It returns true when a new table was swapped in.
func (r *RuleReloader) check() bool {
	info, err := os.Stat(r.path)
	if err != nil {
		log.Printf("Rule reloader: cannot stat %s: %v", r.path, err)
		return false
	}
	if info.ModTime().Equal(r.modTime) && info.Size() == r.size {
		return false
	}
	r.modTime, r.size = info.ModTime(), info.Size()

	table, err := rules.Load(r.path)
	if err == nil {
		err = r.target.Reload(table)
	}
	if err != nil {
		log.Printf("Rule reloader: keeping previous table: %v", err)
		if r.onError != nil {
			r.onError(r.path, err)
		}
		return false
	}

	log.Printf("Rule reloader: loaded rule table version %q", table.Version)
	return true
}

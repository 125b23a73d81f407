// Package audit keeps the append-only, size-bounded operator action log and
// flags actors that act faster than a configured minimum interval.
package audit

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Defaults used when Options leaves a field unset.
const (
	DefaultCap         = 2000
	DefaultMinInterval = time.Second
	DefaultPenalty     = -50
)

var ErrEmptyActor = errors.New("audit entry requires an actor")

// Store persists the ordered entry sequence, most recent first.
// Load must treat a missing or corrupt backing store as empty.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Appender is implemented by stores that can insert at the head and evict
// beyond limit atomically. Log prefers it over rewriting the whole sequence.
type Appender interface {
	Prepend(ctx context.Context, e Entry, limit int) error
}

// Options tunes a Log.
type Options struct {
	Cap         int
	MinInterval time.Duration
	Penalty     int
	Now         func() time.Time
	// Shared re-reads the store before every append and read. Set it when
	// other processes append to the same store.
	Shared bool
	// OnAppend is called after each successful append, outside the lock.
	OnAppend func(Entry)
}

func (o Options) withDefaults() Options {
	if o.Cap <= 0 {
		o.Cap = DefaultCap
	}
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.Penalty == 0 {
		o.Penalty = DefaultPenalty
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Log is the single writer of the audit sequence. Append holds a mutex over
// the whole read-decide-write cycle so concurrent operators never lose entries.
type Log struct {
	mu      sync.Mutex
	store   Store
	opts    Options
	entries []Entry
	loaded  bool
}

// New creates a Log over store.
func New(store Store, opts Options) *Log {
	return &Log{store: store, opts: opts.withDefaults()}
}

// Cap returns the configured maximum length.
func (l *Log) Cap() int {
	return l.opts.Cap
}

// load fills the in-memory copy from the store on first use, or on every
// call for a shared store. Callers hold mu.
func (l *Log) load(ctx context.Context) {
	if l.loaded && !l.opts.Shared {
		return
	}

	entries, err := l.store.Load(ctx)
	if err != nil {
		slog.Warn("audit store unreadable, treating as empty", "error", err)
		return
	}

	if len(entries) > l.opts.Cap {
		entries = entries[:l.opts.Cap]
	}
	l.entries = entries
	l.loaded = true
}

// Append records an action. If the actor's previous entry is closer than
// MinInterval the entry is flagged HighFrequency and its score replaced by
// the penalty. The oldest entries beyond Cap are evicted.
func (l *Log) Append(ctx context.Context, actor, action, target string, baseScore int) (Entry, error) {
	if actor == "" {
		return Entry{}, ErrEmptyActor
	}

	entry, err := l.append(ctx, actor, action, target, baseScore)
	if err != nil {
		return Entry{}, err
	}

	if l.opts.OnAppend != nil {
		l.opts.OnAppend(entry)
	}
	return entry, nil
}

func (l *Log) append(ctx context.Context, actor, action, target string, baseScore int) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.load(ctx)

	entry := Entry{
		Time:   l.opts.Now(),
		Actor:  actor,
		Action: action,
		Target: target,
		Score:  baseScore,
		Risk:   Normal,
	}

	if prev, ok := l.lastBy(actor); ok {
		l.assess(&entry, prev)
	}

	next := make([]Entry, 0, min(len(l.entries)+1, l.opts.Cap))
	next = append(next, entry)
	next = append(next, l.entries[:min(len(l.entries), l.opts.Cap-1)]...)

	if a, ok := l.store.(Appender); ok {
		if err := a.Prepend(ctx, entry, l.opts.Cap); err != nil {
			return Entry{}, err
		}
	} else if err := l.store.Save(ctx, next); err != nil {
		return Entry{}, err
	}

	l.entries = next
	return entry, nil
}

// assess applies the high-frequency rule against the actor's previous entry.
// A prior entry without a usable timestamp skips the check.
func (l *Log) assess(entry *Entry, prev Entry) {
	if prev.Time.IsZero() {
		slog.Warn("audit entry has no usable timestamp, skipping frequency check", "actor", prev.Actor)
		return
	}

	gap := entry.Time.Sub(prev.Time)
	if gap < 0 {
		slog.Warn("audit entry timestamp is in the future, skipping frequency check",
			"actor", prev.Actor, "previous", prev.Time)
		return
	}

	if gap < l.opts.MinInterval {
		entry.Risk = HighFrequency
		entry.Score = l.opts.Penalty
	}
}

func (l *Log) lastBy(actor string) (Entry, bool) {
	for _, e := range l.entries {
		if e.Actor == actor {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the sequence, most recent first.
func (l *Log) Entries(ctx context.Context) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.load(ctx)
	return slices.Clone(l.entries)
}

// Recent returns at most limit entries, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) []Entry {
	entries := l.Entries(ctx)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ActorScore is the score accounting for one actor.
type ActorScore struct {
	Actor   string `json:"actor"`
	Total   int    `json:"total"`
	Entries int    `json:"entries"`
	Flagged int    `json:"flagged"`
}

// Scores sums entry scores per actor, highest total first.
func (l *Log) Scores(ctx context.Context) []ActorScore {
	byActor := make(map[string]*ActorScore)
	for _, e := range l.Entries(ctx) {
		s, ok := byActor[e.Actor]
		if !ok {
			s = &ActorScore{Actor: e.Actor}
			byActor[e.Actor] = s
		}
		s.Total += e.Score
		s.Entries++
		if e.Risk == HighFrequency {
			s.Flagged++
		}
	}

	scores := make([]ActorScore, 0, len(byActor))
	for _, s := range byActor {
		scores = append(scores, *s)
	}
	slices.SortFunc(scores, func(a, b ActorScore) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Actor, b.Actor)
	})
	return scores
}

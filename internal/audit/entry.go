package audit

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimeLayout is the persisted timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Risk flags an entry as normal or anomalous.
type Risk int

const (
	Normal Risk = iota
	HighFrequency
)

func (r Risk) String() string {
	if r == HighFrequency {
		return "HighFrequency"
	}
	return "Normal"
}

// MarshalText encodes the risk by name.
func (r Risk) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a risk name. Unknown names decode as Normal.
func (r *Risk) UnmarshalText(text []byte) error {
	*r = ParseRisk(string(text))
	return nil
}

// ParseRisk maps a name to a Risk, defaulting to Normal.
func ParseRisk(s string) Risk {
	if s == "HighFrequency" {
		return HighFrequency
	}
	return Normal
}

// Entry is one audited operator action. Entries are never mutated after
// they are appended.
type Entry struct {
	Time   time.Time
	Actor  string
	Action string
	Target string
	Score  int
	Risk   Risk
}

type wireEntry struct {
	Time   string `json:"time"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Target string `json:"target"`
	Score  int    `json:"score"`
	Risk   Risk   `json:"risk"`
}

// MarshalJSON writes the export schema with a second-resolution local timestamp.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{
		Actor:  e.Actor,
		Action: e.Action,
		Target: e.Target,
		Score:  e.Score,
		Risk:   e.Risk,
	}
	if !e.Time.IsZero() {
		w.Time = e.Time.Format(TimeLayout)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads the export schema. An unparsable timestamp leaves Time
// zero instead of failing, which disables anomaly checks against the entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Entry{
		Time:   ParseTime(w.Time),
		Actor:  w.Actor,
		Action: w.Action,
		Target: w.Target,
		Score:  w.Score,
		Risk:   w.Risk,
	}
	return nil
}

// ParseTime parses a persisted timestamp, returning the zero time on failure.
func ParseTime(s string) time.Time {
	if t, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

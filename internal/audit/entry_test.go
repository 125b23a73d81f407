package audit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEntry_MarshalJSON(t *testing.T) {
	e := Entry{
		Time:   time.Date(2026, 10, 19, 14, 3, 9, 500, time.Local),
		Actor:  "alice",
		Action: "contact",
		Target: "Shop X",
		Score:  -50,
		Risk:   HighFrequency,
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	want := `{"time":"2026-10-19 14:03:09","actor":"alice","action":"contact","target":"Shop X","score":-50,"risk":"HighFrequency"}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}
}

func TestEntry_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTime time.Time
		wantRisk Risk
	}{
		{
			name:     "export layout",
			input:    `{"time":"2026-10-19 14:03:09","actor":"a","risk":"HighFrequency"}`,
			wantTime: time.Date(2026, 10, 19, 14, 3, 9, 0, time.Local),
			wantRisk: HighFrequency,
		},
		{
			name:     "rfc3339",
			input:    `{"time":"2026-10-19T14:03:09Z","actor":"a","risk":"Normal"}`,
			wantTime: time.Date(2026, 10, 19, 14, 3, 9, 0, time.UTC),
			wantRisk: Normal,
		},
		{
			name:     "malformed time and unknown risk",
			input:    `{"time":"soon","actor":"a","risk":"Spicy"}`,
			wantRisk: Normal,
		},
		{
			name:     "missing fields",
			input:    `{"actor":"a"}`,
			wantRisk: Normal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Entry
			if err := json.Unmarshal([]byte(tt.input), &e); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if !e.Time.Equal(tt.wantTime) {
				t.Errorf("Time = %v, want %v", e.Time, tt.wantTime)
			}
			if e.Risk != tt.wantRisk {
				t.Errorf("Risk = %v, want %v", e.Risk, tt.wantRisk)
			}
		})
	}
}

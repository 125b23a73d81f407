package keywords

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"ascii case", "WHOLESALE", "wholesale"},
		{"vietnamese case", "SỈ", "sỉ"},
		{"decomposed vs composed", "s\u1ec9", "si\u0309"},
		{"german sharp s", "STRASSE", "straße"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Fold(tt.a) != Fold(tt.b) {
				t.Errorf("Fold(%q) = %q, Fold(%q) = %q, want equal", tt.a, Fold(tt.a), tt.b, Fold(tt.b))
			}
		})
	}
}

func TestSet_Match(t *testing.T) {
	set := NewSet([]string{"Wholesale", "  ", "Tổng Kho", "批发"})

	if set.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", set.Len())
	}

	tests := []struct {
		name      string
		text      string
		wantWord  string
		wantMatch bool
	}{
		{"english", "ABC WHOLESALE warehouse", "wholesale", true},
		{"vietnamese", "Tổng kho mỹ phẩm Hà Nội", Fold("Tổng Kho"), true},
		{"chinese", "广州批发市场", "批发", true},
		{"first declared wins", "wholesale tổng kho", "wholesale", true},
		{"no match", "corner shop", "", false},
		{"empty text", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, ok := set.Match(Fold(tt.text))
			if ok != tt.wantMatch || word != tt.wantWord {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.text, word, ok, tt.wantWord, tt.wantMatch)
			}
		})
	}
}

func TestSet_Empty(t *testing.T) {
	var set Set
	if set.Contains("anything") {
		t.Error("zero Set should not match")
	}
}

package fuzzy

import (
	"math"
	"reflect"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"jon", "john", 1},
		{"johm", "john", 1},
		{"same", "same", 0},
		// Rune-wise: one accented substitution is one edit, not two.
		{"rené", "rene", 1},
		{"andré", "andrè", 1},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsMatch_Boundary(t *testing.T) {
	if m := IsMatch("johm", "John Doe"); !m.Matched {
		t.Errorf("expected johm to match John Doe, got %+v", m)
	}
	if m := IsMatch("xyz", "John"); m.Matched {
		t.Errorf("expected xyz not to match John, got %+v", m)
	}
	if m := IsMatch("xyz", "John"); m.Score != 0 {
		t.Errorf("unmatched score must be 0, got %v", m.Score)
	}
}

func TestIsMatch_SubstringWindow(t *testing.T) {
	m := IsMatch("jon", "John Doe")
	if !m.Matched {
		t.Fatalf("expected match, got %+v", m)
	}
	if m.Distance != 1 {
		t.Errorf("expected best-window distance 1, got %d", m.Distance)
	}
	// 1 - 1/len("john doe")
	want := 1 - 1.0/8
	if math.Abs(m.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", m.Score, want)
	}
}

func TestIsMatch_CaseInsensitive(t *testing.T) {
	exact := IsMatch("JOHN", "john")
	if !exact.Matched || exact.Distance != 0 || exact.Score != 1 {
		t.Errorf("case-insensitive exact match broken: %+v", exact)
	}
}

func TestIsMatch_ScoreDecreasesWithDistance(t *testing.T) {
	target := "soccer"
	d0 := IsMatch("soccer", target)
	d1 := IsMatch("soccar", target)
	d2 := IsMatch("sorcar", target)
	if !(d0.Score > d1.Score && d1.Score > d2.Score) {
		t.Errorf("scores not strictly decreasing: %v %v %v", d0.Score, d1.Score, d2.Score)
	}
}

func TestIsMatch_Empty(t *testing.T) {
	if m := IsMatch("", "target"); m.Matched || m.Distance != 6 {
		t.Errorf("empty term vs %q: want unmatched with distance 6, got %+v", "target", m)
	}
	if m := IsMatch("term", ""); m.Matched || m.Distance != 4 {
		t.Errorf("%q vs empty target: want unmatched with distance 4, got %+v", "term", m)
	}
	// Within tolerance the matched flag tracks the distance even for the
	// degenerate empty-operand case.
	if m := IsMatch("", "ab"); !m.Matched || m.Distance != 2 {
		t.Errorf("empty term vs short target: %+v", m)
	}
	if m := IsMatch("", ""); !m.Matched || m.Distance != 0 || m.Score != 1 {
		t.Errorf("both empty must match exactly: %+v", m)
	}
}

func TestIsMatch_MultiByte(t *testing.T) {
	m := IsMatch("rene", "René Dupont")
	if !m.Matched {
		t.Fatalf("expected rene to match René Dupont, got %+v", m)
	}
	if m.Distance != 1 {
		t.Errorf("accented substitution distance = %d, want 1", m.Distance)
	}
}

func TestSuggestions(t *testing.T) {
	pool := []string{"basketball", "baseball", "soccer", "swimming", "basketbal"}

	got := Suggestions("basketbll", pool, 3)
	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	// Closest candidates come first.
	if got[0] != "basketbal" && got[0] != "basketball" {
		t.Errorf("expected a basketball variant first, got %v", got)
	}
	for _, s := range got {
		if s == "soccer" || s == "swimming" {
			t.Errorf("distant candidate %q should be filtered out", s)
		}
	}
}

func TestSuggestions_Bounds(t *testing.T) {
	pool := []string{"alpha", "alphb", "alphc", "alphd"}
	if got := Suggestions("alpha", pool, 2); len(got) > 2 {
		t.Errorf("max not respected: %v", got)
	}
	if got := Suggestions("", pool, 5); got != nil {
		t.Errorf("empty term must yield nil, got %v", got)
	}
	if got := Suggestions("alpha", nil, 5); len(got) != 0 {
		t.Errorf("empty pool must yield nothing, got %v", got)
	}
}

func TestSuggestions_ExcludesQueryAndDuplicates(t *testing.T) {
	pool := []string{"soccer", "Soccer", "soccre"}
	got := Suggestions("soccer", pool, 5)
	if !reflect.DeepEqual(got, []string{"soccre"}) {
		t.Errorf("expected only soccre, got %v", got)
	}
}

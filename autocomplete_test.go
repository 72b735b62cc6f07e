package searchcore

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/store/memory"
)

func TestAutoComplete_EmptyPrefix(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	got, err := e.AutoComplete(context.Background(), "   ", TypeUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions = %v, want none for empty prefix", got)
	}
}

func TestAutoComplete_PrefixMatches(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())

	got, err := e.AutoComplete(context.Background(), "Jo", TypeUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{"John Doe": false, "Jon Snow": false}
	for _, s := range got {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("suggestions = %v, missing %q", got, name)
		}
	}
	for _, s := range got {
		if !strings.HasPrefix(strings.ToLower(s), "jo") {
			t.Errorf("suggestion %q does not share the prefix", s)
		}
	}
}

func TestAutoComplete_IncludesPopularTerms(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	ctx := context.Background()

	if _, err := e.Search(ctx, Query{Term: "joinery", Type: TypeUsers}, false); err != nil {
		t.Fatalf("seed search: %v", err)
	}
	got, err := e.AutoComplete(ctx, "joi", TypeUsers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, s := range got {
		if s == "joinery" {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want to contain the popular term joinery", got)
	}
}

func TestAutoComplete_CachesResults(t *testing.T) {
	counting := &countingQuerier{inner: seededStore()}
	e, err := New(context.Background(), counting, memory.New(), zap.NewNop(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := e.AutoComplete(ctx, "ba", TypeVideos); err != nil {
		t.Fatalf("first call: %v", err)
	}
	calls := counting.calls.Load()
	if _, err := e.AutoComplete(ctx, "BA", TypeVideos); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got := counting.calls.Load(); got != calls {
		t.Errorf("cached prefix still queried the store (%d -> %d)", calls, got)
	}
}

func TestAutoComplete_InvalidType(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	_, err := e.AutoComplete(context.Background(), "jo", "bogus")
	if KindOf(err) != KindInvalidQuery {
		t.Errorf("kind = %s, want %s", KindOf(err), KindInvalidQuery)
	}
}

package searchcore

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/store/memory"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	s := memory.New()
	if _, err := New(context.Background(), nil, s, zap.NewNop(), DefaultOptions()); err == nil {
		t.Error("expected error for nil querier")
	}
	if _, err := New(context.Background(), s, nil, zap.NewNop(), DefaultOptions()); err == nil {
		t.Error("expected error for nil kv store")
	}
	if _, err := New(context.Background(), s, s, nil, DefaultOptions()); err != nil {
		t.Errorf("nil logger should default to nop: %v", err)
	}
}

func TestClearCaches(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	ctx := context.Background()
	q := Query{Term: "basketball", Type: TypeVideos}

	if _, err := e.Search(ctx, q, false); err != nil {
		t.Fatalf("search: %v", err)
	}
	e.ClearCaches()

	res, err := e.Search(ctx, q, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Cached {
		t.Error("cleared cache still served a hit")
	}
}

func TestInvalidateType_DropsAffectedEntries(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	ctx := context.Background()

	userQ := Query{Term: "jane", Type: TypeUsers}
	videoQ := Query{Term: "basketball", Type: TypeVideos}
	allQ := Query{Term: "basketball", Type: TypeAll}
	for _, q := range []Query{userQ, videoQ, allQ} {
		if _, err := e.Search(ctx, q, false); err != nil {
			t.Fatalf("warm search: %v", err)
		}
	}

	e.InvalidateType(TypeUsers)

	res, err := e.Search(ctx, userQ, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Cached {
		t.Error("users entry survived invalidation")
	}
	res, err = e.Search(ctx, allQ, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Cached {
		t.Error("all-scoped entry survived invalidation")
	}
	res, err = e.Search(ctx, videoQ, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !res.Cached {
		t.Error("videos entry should be untouched")
	}
}

func TestInvalidateResults_BadPattern(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	_, err := e.InvalidateResults("[")
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	if got := KindOf(err); got != KindCacheError {
		t.Errorf("kind = %s, want %s", got, KindCacheError)
	}
}

func TestDestroy_PersistsHistoryAcrossRestart(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	e, err := New(ctx, s, s, zap.NewNop(), testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Search(ctx, Query{Term: "basketball", Type: TypeVideos}, false); err != nil {
		t.Fatalf("search: %v", err)
	}
	if err := e.Destroy(ctx); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	// A new engine over the same KV store sees the prior history.
	e2, err := New(ctx, s, s, zap.NewNop(), testOptions())
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	terms := e2.Monitor().PopularTerms(10)
	found := false
	for _, term := range terms {
		if term == "basketball" {
			found = true
		}
	}
	if !found {
		t.Errorf("popular terms after restart = %v, want to contain basketball", terms)
	}
}

func TestPrefetchPopular_WarmsResultsCache(t *testing.T) {
	e, _ := newTestEngine(t, testOptions())
	ctx := context.Background()

	if _, err := e.Search(ctx, Query{Term: "basketball", Type: TypeAll}, false); err != nil {
		t.Fatalf("search: %v", err)
	}
	e.ClearCaches()

	if warmed := e.PrefetchPopular(ctx); warmed != 1 {
		t.Fatalf("warmed = %d, want 1", warmed)
	}
	res, err := e.Search(ctx, Query{Term: "basketball", Type: TypeAll}, false)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !res.Cached {
		t.Error("prefetched term should be served from cache")
	}
}

func TestPrefetchPopular_DisabledCaching(t *testing.T) {
	opts := testOptions()
	opts.EnableCaching = false
	e, _ := newTestEngine(t, opts)
	if warmed := e.PrefetchPopular(context.Background()); warmed != 0 {
		t.Errorf("warmed = %d, want 0 with caching off", warmed)
	}
}

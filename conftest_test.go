package searchcore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/store"
	"github.com/arenahq/searchcore/internal/store/memory"
)

// mockQuerier lets a test script store behavior per call.
type mockQuerier struct {
	fn func(ctx context.Context, collection string, predicates []store.Predicate, orderBy string, limit int) ([]store.RawRecord, error)
}

func (m *mockQuerier) RunQuery(ctx context.Context, collection string, predicates []store.Predicate, orderBy string, limit int) ([]store.RawRecord, error) {
	return m.fn(ctx, collection, predicates, orderBy, limit)
}

// countingQuerier wraps a querier and counts store round trips.
type countingQuerier struct {
	inner store.Querier
	calls atomic.Int64
}

func (c *countingQuerier) RunQuery(ctx context.Context, collection string, predicates []store.Predicate, orderBy string, limit int) ([]store.RawRecord, error) {
	c.calls.Add(1)
	return c.inner.RunQuery(ctx, collection, predicates, orderBy, limit)
}

func seededStore() *memory.Store {
	s := memory.New()
	s.Add("users", store.RawRecord{
		"id": "u1", "displayName": "John Doe", "email": "john@example.com",
		"role": "athlete", "status": "active", "createdAt": int64(1700000000),
	})
	s.Add("users", store.RawRecord{
		"id": "u2", "displayName": "Jane Smith", "email": "jane@example.com",
		"role": "coach", "status": "active", "createdAt": int64(1700100000),
	})
	s.Add("users", store.RawRecord{
		"id": "u3", "displayName": "Jon Snow", "email": "jon@example.com",
		"role": "athlete", "status": "inactive", "createdAt": int64(1700200000),
	})
	s.Add("videos", store.RawRecord{
		"id": "v1", "title": "Basketball Highlights", "description": "Season best plays",
		"category": "highlights", "status": "published", "uploadedAt": int64(1700300000),
	})
	s.Add("videos", store.RawRecord{
		"id": "v2", "title": "Soccer Training Drills", "description": "Passing and control",
		"category": "training", "status": "published", "uploadedAt": int64(1700400000),
	})
	s.Add("events", store.RawRecord{
		"id": "e1", "title": "City Marathon", "location": "Berlin", "sport": "running",
		"status": "upcoming", "startsAt": int64(1700500000),
	})
	s.Add("events", store.RawRecord{
		"id": "e2", "title": "Basketball Tournament", "location": "Madrid", "sport": "basketball",
		"status": "upcoming", "startsAt": int64(1700600000),
	})
	return s
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.DebounceDelay = 10 * time.Millisecond
	opts.DebounceMaxWait = 50 * time.Millisecond
	return opts
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *memory.Store) {
	t.Helper()
	s := seededStore()
	e, err := New(context.Background(), s, s, zap.NewNop(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, s
}

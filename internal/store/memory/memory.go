// Package memory provides in-process implementations of the store
// collaborators, used by tests and as the default driver for the binary.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arenahq/searchcore/internal/store"
)

// Store holds documents per collection plus a flat KV map. Safe for
// concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.RawRecord
	kv          map[string]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string][]store.RawRecord),
		kv:          make(map[string]string),
	}
}

// Add appends a document to a collection.
func (s *Store) Add(collection string, rec store.RawRecord) {
	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], rec)
	s.mu.Unlock()
}

// RunQuery filters a collection by the given predicates. Ordering is by the
// orderBy field descending when set (string comparison for strings, numeric
// otherwise).
func (s *Store) RunQuery(
	ctx context.Context, collection string,
	predicates []store.Predicate, orderBy string, limit int,
) ([]store.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	docs := s.collections[collection]
	out := make([]store.RawRecord, 0, len(docs))
	for _, d := range docs {
		if matchesAll(d, predicates) {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()

	if orderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[j], out[i], orderBy) // descending
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the value stored at key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return "", store.ErrKeyNotFound
	}
	return v, nil
}

// Set stores value at key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.kv[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.kv, key)
	s.mu.Unlock()
	return nil
}

func matchesAll(rec store.RawRecord, predicates []store.Predicate) bool {
	for _, p := range predicates {
		if !matches(rec, p) {
			return false
		}
	}
	return true
}

func matches(rec store.RawRecord, p store.Predicate) bool {
	switch p.Op {
	case store.OpEqual:
		return rec[p.Field] == p.Value
	case store.OpIn:
		values, ok := p.Value.([]string)
		if !ok {
			return false
		}
		got := rec.String(p.Field)
		for _, v := range values {
			if got == v {
				return true
			}
		}
		return false
	case store.OpContains:
		needle, ok := p.Value.(string)
		if !ok {
			return false
		}
		return strings.Contains(
			strings.ToLower(rec.String(p.Field)), strings.ToLower(needle),
		)
	default:
		return false
	}
}

func less(a, b store.RawRecord, field string) bool {
	if av, ok := a[field].(string); ok {
		bv, _ := b[field].(string)
		return av < bv
	}
	return a.Int64(field) < b.Int64(field)
}

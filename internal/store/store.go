// Package store defines the external collaborator contracts the search core
// consumes: a generic document querier and a persistent key-value store.
// The core never assumes index availability from the querier; when
// predicates are not selective enough it filters client-side.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound signals a missing key in the KV store.
var ErrKeyNotFound = errors.New("key not found")

// RawRecord is an untyped field bag keyed by string, as returned by the
// document store. Typed records are built from it at the boundary.
type RawRecord map[string]any

// String returns the named field as a string, or "" when absent or of a
// different type.
func (r RawRecord) String(field string) string {
	v, _ := r[field].(string)
	return v
}

// Int64 returns the named field as an int64, tolerating the numeric types
// a JSON decoder may produce.
func (r RawRecord) Int64(field string) int64 {
	switch v := r[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Bool returns the named field as a bool, defaulting to false.
func (r RawRecord) Bool(field string) bool {
	v, _ := r[field].(bool)
	return v
}

// Op is a predicate comparison operator.
type Op string

// Supported predicate operators.
const (
	OpEqual    Op = "=="
	OpIn       Op = "in"
	OpContains Op = "contains"
)

// Predicate is a single (field, op, value) filter pushed down to the store.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Querier runs queries against one logical document collection.
type Querier interface {
	// RunQuery returns at most limit raw records from the named collection
	// matching all predicates, ordered by orderBy descending when set.
	// limit <= 0 means the store's own bound.
	RunQuery(ctx context.Context, collection string, predicates []Predicate, orderBy string, limit int) ([]RawRecord, error)
}

// KV is a persistent string-valued key-value store backing saved searches
// and search-history persistence across restarts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

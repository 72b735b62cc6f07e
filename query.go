package searchcore

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SearchType scopes a query to one logical collection, or all of them.
type SearchType string

// Known search types.
const (
	TypeUsers  SearchType = "users"
	TypeVideos SearchType = "videos"
	TypeEvents SearchType = "events"
	TypeAll    SearchType = "all"
)

// IsValid checks whether the search type is a known value.
func (t SearchType) IsValid() bool {
	return t == TypeUsers || t == TypeVideos || t == TypeEvents || t == TypeAll
}

// collections returns the concrete collections a type fans out to.
func (t SearchType) collections() []SearchType {
	if t == TypeAll {
		return []SearchType{TypeUsers, TypeVideos, TypeEvents}
	}
	return []SearchType{t}
}

// Query limits.
const (
	// MaxTermLength is the maximum allowed term length.
	MaxTermLength = 256
	// MaxLimit is the maximum page size.
	MaxLimit = 100
	// DefaultLimit is the page size applied when none is given.
	DefaultLimit = 20
)

// allowedFilterKeys is the filter allow-list; each filter's values are OR'd
// internally, different filter keys are AND'd.
var allowedFilterKeys = map[string]struct{}{
	"role":       {},
	"status":     {},
	"category":   {},
	"sport":      {},
	"location":   {},
	"visibility": {},
}

// Query is a search request: a free-text term plus structured filters and
// pagination. Term may be empty only when at least one filter is present.
type Query struct {
	Term    string              `json:"term"`
	Type    SearchType          `json:"searchType"`
	Filters map[string][]string `json:"filters,omitempty"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
}

// withDefaults returns a copy with the default limit applied.
func (q Query) withDefaults(defaultLimit int) Query {
	if q.Limit == 0 {
		if defaultLimit > 0 {
			q.Limit = defaultLimit
		} else {
			q.Limit = DefaultLimit
		}
	}
	return q
}

// Validate returns every violation, not just the first, so callers can
// report "invalid query: ..." deterministically. Pure.
func (q Query) Validate() []string {
	var violations []string

	if !q.Type.IsValid() {
		violations = append(violations, fmt.Sprintf("unknown search type %q", q.Type))
	}
	if len(q.Term) > MaxTermLength {
		violations = append(violations, fmt.Sprintf("term exceeds %d characters", MaxTermLength))
	}
	if strings.TrimSpace(q.Term) == "" && len(q.Filters) == 0 {
		violations = append(violations, "term is required when no filters are given")
	}
	for _, key := range q.filterKeys() {
		if _, ok := allowedFilterKeys[key]; !ok {
			violations = append(violations, fmt.Sprintf("filter key %q is not allowed", key))
		}
	}
	if q.Offset < 0 {
		violations = append(violations, "offset must not be negative")
	}
	if q.Limit < 0 {
		violations = append(violations, "limit must not be negative")
	}
	if q.Limit > MaxLimit {
		violations = append(violations, fmt.Sprintf("limit exceeds %d", MaxLimit))
	}

	return violations
}

// Fingerprint serializes every field that affects the result set into a
// canonical cache key: stable field order, sorted filter keys and values.
// Semantically identical queries always produce the same fingerprint.
func (q Query) Fingerprint() string {
	var b strings.Builder
	b.WriteString("type=")
	b.WriteString(string(q.Type))
	b.WriteString("&term=")
	b.WriteString(url.QueryEscape(strings.ToLower(strings.TrimSpace(q.Term))))
	b.WriteString("&filters=")
	b.WriteString(canonicalFilters(q.Filters))
	fmt.Fprintf(&b, "&offset=%d&limit=%d", q.Offset, q.Limit)
	return b.String()
}

// filterKeys returns the sorted filter key names.
func (q Query) filterKeys() []string {
	if len(q.Filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func canonicalFilters(filters map[string][]string) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Keys and values are escaped individually so separator characters
	// inside a value ("Berlin, Germany") cannot collide with the
	// separators of the serialization itself.
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := append([]string(nil), filters[k]...)
		sort.Strings(values)
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = url.QueryEscape(v)
		}
		parts = append(parts, url.QueryEscape(k)+":"+strings.Join(escaped, ","))
	}
	return strings.Join(parts, ";")
}

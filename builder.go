package searchcore

import "context"

// SearchBuilder is a fluent builder for queries against an engine.
type SearchBuilder struct {
	engine   *Engine
	q        Query
	debounce bool
}

// NewSearch starts a fluent query. The zero builder searches all types.
func (e *Engine) NewSearch() *SearchBuilder {
	return &SearchBuilder{engine: e, q: Query{Type: TypeAll}}
}

// Term sets the search term. Boolean operators (AND, OR, NOT) are honored.
func (b *SearchBuilder) Term(term string) *SearchBuilder {
	b.q.Term = term
	return b
}

// Type scopes the search to one record type.
func (b *SearchBuilder) Type(t SearchType) *SearchBuilder {
	b.q.Type = t
	return b
}

// Where adds an exact-match filter. Repeated calls with the same key OR the
// values together; distinct keys are ANDed.
func (b *SearchBuilder) Where(key, value string) *SearchBuilder {
	if b.q.Filters == nil {
		b.q.Filters = make(map[string][]string)
	}
	b.q.Filters[key] = append(b.q.Filters[key], value)
	return b
}

// Offset sets the pagination offset.
func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.q.Offset = n
	return b
}

// Limit sets the maximum page size.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.q.Limit = n
	return b
}

// Debounced coalesces this search with concurrent identical ones.
func (b *SearchBuilder) Debounced() *SearchBuilder {
	b.debounce = true
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*Results, error) {
	return b.engine.Search(ctx, b.q, b.debounce)
}

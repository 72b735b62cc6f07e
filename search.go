package searchcore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/boolquery"
	"github.com/arenahq/searchcore/internal/fuzzy"
	"github.com/arenahq/searchcore/internal/store"
)

const (
	// fetchWindow bounds how many records one store query may return; all
	// matching happens inside this window, no inverted index is built.
	fetchWindow = 500
	// maxSuggestions caps did-you-mean suggestions on empty results.
	maxSuggestions = 5
	// suggestionPoolSize is how many popular terms feed suggestion ranking.
	suggestionPoolSize = 50
)

// Search executes a query end to end: validate, cache lookup, store
// fan-out, fuzzy/boolean filtering, ranking, pagination, suggestion
// generation, cache write-through, and performance recording. With
// useDebounce, bursty same-fingerprint calls collapse into one execution
// whose result every caller receives.
func (e *Engine) Search(ctx context.Context, q Query, useDebounce bool) (*Results, error) {
	q = q.withDefaults(e.opts.DefaultLimit)

	if violations := q.Validate(); len(violations) > 0 {
		err := newInvalidQuery(violations)
		e.search.RecordError(string(q.Type), string(KindInvalidQuery))
		e.recordSearch(q, 0, 0, false, true)
		return nil, err
	}

	key := q.Fingerprint()
	if useDebounce {
		return e.deb.Do(ctx, key, func() (*Results, error) {
			return e.execute(ctx, q, key)
		})
	}
	return e.execute(ctx, q, key)
}

func (e *Engine) execute(ctx context.Context, q Query, key string) (res *Results, err error) {
	start := time.Now()
	e.search.RecordRequest(string(q.Type))

	// Unexpected panics surface as UNKNOWN, never crash the caller.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Search panicked", zap.Any("panic", r), zap.String("fingerprint", key))
			e.search.RecordError(string(q.Type), string(KindUnknown))
			e.recordSearch(q, time.Since(start), 0, false, true)
			res = nil
			err = newUnknown(errors.New("panic during search"))
		}
	}()

	if e.opts.EnableCaching {
		if cached, ok := e.results.Get(key); ok {
			hit := *cached
			hit.Cached = true
			hit.SearchTime = time.Since(start)
			e.recordSearch(q, hit.SearchTime, hit.TotalCount, true, false)
			return &hit, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.MaxSearchTime)
	defer cancel()

	items, fetchErr := e.fetch(ctx, q)
	if fetchErr != nil {
		serr := e.classify(ctx, fetchErr)
		e.search.RecordError(string(q.Type), string(serr.Kind))
		e.recordSearch(q, time.Since(start), 0, false, true)
		e.logger.Warn("Search failed",
			zap.String("fingerprint", key),
			zap.String("kind", string(serr.Kind)),
			zap.Error(fetchErr),
		)
		return nil, serr
	}

	matched, scores := e.match(q, items)
	rank(matched, scores)

	total := len(matched)
	page, hasMore, nextOffset := paginate(matched, q.Offset, q.Limit)

	res = &Results{
		Items:           page,
		TotalCount:      total,
		RelevanceScores: pageScores(page, scores),
		Facets:          facets(matched),
		HasMore:         hasMore,
		NextOffset:      nextOffset,
	}
	if total == 0 {
		res.Suggestions = fuzzy.Suggestions(
			q.Term, e.mon.PopularTerms(suggestionPoolSize), maxSuggestions,
		)
	}
	res.SearchTime = time.Since(start)

	if e.opts.EnableCaching {
		e.results.Set(key, res)
	}
	e.search.RecordDuration(string(q.Type), res.SearchTime.Seconds())
	e.search.RecordResults(string(q.Type), float64(total))
	e.recordSearch(q, res.SearchTime, total, false, false)
	return res, nil
}

// fetch runs the store queries for q. Boolean queries fan out one store
// query per extracted term; "all" fans out one query per concrete
// collection. Results are merged and deduplicated by id.
func (e *Engine) fetch(ctx context.Context, q Query) ([]Item, error) {
	terms := []string{q.Term}
	if boolquery.HasOperators(q.Term) {
		terms = boolquery.Parse(q.Term).Terms()
	}

	var (
		items []Item
		seen  = make(map[string]struct{})
	)
	for _, t := range q.Type.collections() {
		kind := kindFor(t)
		collection := collectionFor(t)
		for _, term := range terms {
			recs, err := e.querier.RunQuery(
				ctx, collection, e.predicates(q, t, term), orderField(t), fetchWindow,
			)
			if err != nil {
				return nil, err
			}
			for _, rec := range recs {
				item, err := itemFromRaw(kind, rec)
				if err != nil {
					e.logger.Debug("Dropping malformed record",
						zap.String("collection", collection), zap.Error(err))
					continue
				}
				dedupe := string(kind) + ":" + item.ID()
				if _, dup := seen[dedupe]; dup {
					continue
				}
				seen[dedupe] = struct{}{}
				items = append(items, item)
			}
		}
	}
	return items, nil
}

// predicates pushes the structured filters down to the store: values of one
// key are OR'd (an "in" predicate), keys are AND'd. The term is pushed down
// as a contains pre-filter only when fuzzy matching is off; a fuzzy scan
// must see the full window.
func (e *Engine) predicates(q Query, t SearchType, term string) []store.Predicate {
	preds := make([]store.Predicate, 0, len(q.Filters)+1)
	for _, key := range q.filterKeys() {
		values := q.Filters[key]
		if len(values) == 1 {
			preds = append(preds, store.Predicate{Field: key, Op: store.OpEqual, Value: values[0]})
		} else if len(values) > 1 {
			preds = append(preds, store.Predicate{Field: key, Op: store.OpIn, Value: values})
		}
	}
	if term = strings.TrimSpace(term); term != "" && !e.opts.EnableFuzzyMatching {
		preds = append(preds, store.Predicate{
			Field: primaryField(t), Op: store.OpContains, Value: term,
		})
	}
	return preds
}

// primaryField names the display field the store can pre-filter on.
func primaryField(t SearchType) string {
	if t == TypeUsers {
		return "displayName"
	}
	return "title"
}

// match applies the term matching client-side and returns the surviving
// items with their relevance scores. An empty term (filter-only queries)
// keeps everything with a neutral score.
func (e *Engine) match(q Query, items []Item) ([]Item, map[string]float64) {
	term := strings.TrimSpace(q.Term)
	scores := make(map[string]float64, len(items))

	if term == "" {
		for _, it := range items {
			scores[it.ID()] = 1
		}
		return items, scores
	}

	var (
		ast     *boolquery.AST
		boolean = boolquery.HasOperators(term)
	)
	if boolean {
		ast = boolquery.Parse(term)
		if ast.IsSingle() {
			// Short-circuit into plain fuzzy search.
			boolean = false
			term = ast.Terms()[0]
		}
	}

	matched := items[:0]
	for _, it := range items {
		var (
			ok    bool
			score float64
		)
		if boolean {
			ok, score = e.matchBoolean(ast, it)
		} else {
			ok, score = e.matchTerm(term, it)
		}
		if ok {
			matched = append(matched, it)
			scores[it.ID()] = score
		}
	}
	return matched, scores
}

// matchTerm compares the term against each of the item's display fields and
// keeps the best score. With fuzzy matching disabled only case-insensitive
// substring containment counts.
func (e *Engine) matchTerm(term string, it Item) (bool, float64) {
	best := 0.0
	ok := false
	for _, field := range it.searchFields() {
		if field == "" {
			continue
		}
		if e.opts.EnableFuzzyMatching {
			m := fuzzy.IsMatch(term, field)
			if m.Matched && m.Score > best {
				best = m.Score
				ok = true
			}
		} else if strings.Contains(strings.ToLower(field), strings.ToLower(term)) {
			best = 1
			ok = true
		}
	}
	return ok, best
}

// matchBoolean evaluates the AST left-to-right over per-term outcomes; the
// score is the best score among the terms that matched.
func (e *Engine) matchBoolean(ast *boolquery.AST, it Item) (bool, float64) {
	terms := ast.Terms()
	outcomes := make([]bool, len(terms))
	best := 0.0
	for i, t := range terms {
		ok, score := e.matchTerm(t, it)
		outcomes[i] = ok
		if ok && score > best {
			best = score
		}
	}
	if !ast.Evaluate(outcomes) {
		return false, 0
	}
	return true, best
}

// rank orders by relevance score descending, breaking ties by recency,
// newest first.
func rank(items []Item, scores map[string]float64) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := scores[items[i].ID()], scores[items[j].ID()]
		if si != sj {
			return si > sj
		}
		return items[i].CreatedAt().After(items[j].CreatedAt())
	})
}

func paginate(items []Item, offset, limit int) ([]Item, bool, *int) {
	if offset >= len(items) {
		return []Item{}, false, nil
	}
	end := offset + limit
	if end >= len(items) {
		return items[offset:], false, nil
	}
	next := end
	return items[offset:end], true, &next
}

// pageScores restricts the score map to the returned page so the
// "RelevanceScores keys are a subset of item ids" invariant holds.
func pageScores(page []Item, scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(page))
	for _, it := range page {
		if s, ok := scores[it.ID()]; ok {
			out[it.ID()] = s
		}
	}
	return out
}

// facets counts facet values over the full match set, not just the page.
func facets(items []Item) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, it := range items {
		for name, value := range it.facetValues() {
			if value == "" {
				continue
			}
			if out[name] == nil {
				out[name] = make(map[string]int)
			}
			out[name][value]++
		}
	}
	return out
}

// classify normalizes a fetch failure into the error taxonomy.
func (e *Engine) classify(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newTimeout(err)
	}
	if errors.Is(err, context.Canceled) {
		return newUnknown(err)
	}
	return newNetworkError(err)
}

func (e *Engine) recordSearch(q Query, took time.Duration, resultCount int, cacheHit, errored bool) {
	e.mon.RecordSearch(
		q.Term, string(q.Type), q.filterKeys(), took, resultCount, cacheHit, errored,
	)
}

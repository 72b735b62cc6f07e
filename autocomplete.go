package searchcore

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// maxAutocomplete caps the suggestion list returned for live typing.
const maxAutocomplete = 10

// autocompleteWindow bounds the store scan backing a suggestion miss; the
// call path must stay well under the live-typing latency budget.
const autocompleteWindow = 200

// AutoComplete returns up to ten suggestions for a typing prefix. An empty
// prefix returns immediately without touching the store; otherwise the
// autocomplete cache is consulted first, then a lightweight prefix scan of
// the type's display fields merged with matching popular terms.
func (e *Engine) AutoComplete(ctx context.Context, prefix string, t SearchType) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	if !t.IsValid() {
		return nil, newInvalidQuery([]string{"unknown search type \"" + string(t) + "\""})
	}

	key := "ac:" + string(t) + ":" + strings.ToLower(prefix)
	if e.opts.EnableCaching {
		if cached, ok := e.autocomplete.Get(key); ok {
			return cached, nil
		}
	}

	suggestions, err := e.scanPrefix(ctx, prefix, t)
	if err != nil {
		e.logger.Warn("Autocomplete scan failed", zap.String("prefix", prefix), zap.Error(err))
		return nil, e.classify(ctx, err)
	}

	lower := strings.ToLower(prefix)
	for _, term := range e.mon.PopularTerms(suggestionPoolSize) {
		if strings.HasPrefix(term, lower) {
			suggestions = append(suggestions, term)
		}
	}
	suggestions = dedupeFold(suggestions)
	sort.Strings(suggestions)
	if len(suggestions) > maxAutocomplete {
		suggestions = suggestions[:maxAutocomplete]
	}

	if e.opts.EnableCaching {
		e.autocomplete.Set(key, suggestions)
	}
	return suggestions, nil
}

func (e *Engine) scanPrefix(ctx context.Context, prefix string, t SearchType) ([]string, error) {
	lower := strings.ToLower(prefix)
	var out []string
	for _, ct := range t.collections() {
		recs, err := e.querier.RunQuery(
			ctx, collectionFor(ct), nil, orderField(ct), autocompleteWindow,
		)
		if err != nil {
			return nil, err
		}
		kind := kindFor(ct)
		for _, rec := range recs {
			item, err := itemFromRaw(kind, rec)
			if err != nil {
				continue
			}
			for _, field := range item.searchFields() {
				if field != "" && strings.HasPrefix(strings.ToLower(field), lower) {
					out = append(out, field)
				}
			}
		}
	}
	return out, nil
}

// dedupeFold removes case-insensitive duplicates, keeping first occurrence.
func dedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		k := strings.ToLower(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

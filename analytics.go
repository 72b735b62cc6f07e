package searchcore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arenahq/searchcore/internal/monitor"
)

// Analytics summarizes search behaviour over a time window, derived from
// the monitor's retained history.
type Analytics struct {
	From              time.Time           `json:"from"`
	To                time.Time           `json:"to"`
	TotalSearches     int                 `json:"totalSearches"`
	CacheHitRate      float64             `json:"cacheHitRate"`
	ErrorRate         float64             `json:"errorRate"`
	AverageDuration   time.Duration       `json:"averageDuration"`
	TopTerms          []monitor.TermCount `json:"topTerms"`
	ZeroResultQueries []string            `json:"zeroResultQueries"`
	PopularFilters    []FilterCount       `json:"popularFilters"`
	SearchesByType    map[string]int      `json:"searchesByType"`
}

// FilterCount pairs a filter key with how often it appeared in searches.
type FilterCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

const analyticsTopN = 10

// Analytics aggregates the retained search history between from and to
// (inclusive). Returns ErrAnalyticsDisabled when analytics collection is
// switched off.
func (e *Engine) Analytics(ctx context.Context, from, to time.Time) (*Analytics, error) {
	if !e.opts.EnableAnalytics {
		return nil, ErrAnalyticsDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, e.classify(ctx, err)
	}

	key := fmt.Sprintf("analytics:%d:%d", from.Unix(), to.Unix())
	if e.opts.EnableCaching {
		if cached, ok := e.analytics.Get(key); ok {
			return cached, nil
		}
	}

	a := &Analytics{
		From:           from,
		To:             to,
		SearchesByType: map[string]int{},
	}

	var (
		hits, errs int
		total      time.Duration
		termFreq   = map[string]int{}
		filterFreq = map[string]int{}
		zeroSeen   = map[string]struct{}{}
	)
	for _, rec := range e.mon.History() {
		if rec.Timestamp.Before(from) || rec.Timestamp.After(to) {
			continue
		}
		a.TotalSearches++
		total += rec.ResponseTime
		a.SearchesByType[rec.SearchType]++
		if rec.CacheHit {
			hits++
		}
		if rec.Errored {
			errs++
		}
		if rec.Term != "" {
			termFreq[rec.Term]++
			if rec.ResultCount == 0 && !rec.Errored {
				zeroSeen[rec.Term] = struct{}{}
			}
		}
		for _, k := range rec.FilterKeys {
			filterFreq[k]++
		}
	}

	if a.TotalSearches > 0 {
		a.CacheHitRate = float64(hits) / float64(a.TotalSearches)
		a.ErrorRate = float64(errs) / float64(a.TotalSearches)
		a.AverageDuration = total / time.Duration(a.TotalSearches)
	}
	a.TopTerms = rankTermFreq(termFreq, analyticsTopN)
	a.ZeroResultQueries = sortedKeys(zeroSeen)
	a.PopularFilters = rankFilterFreq(filterFreq, analyticsTopN)

	if e.opts.EnableCaching {
		e.analytics.Set(key, a)
	}
	return a, nil
}

func rankTermFreq(freq map[string]int, n int) []monitor.TermCount {
	out := make([]monitor.TermCount, 0, len(freq))
	for term, count := range freq {
		out = append(out, monitor.TermCount{Term: term, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func rankFilterFreq(freq map[string]int, n int) []FilterCount {
	out := make([]FilterCount, 0, len(freq))
	for key, count := range freq {
		out = append(out, FilterCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

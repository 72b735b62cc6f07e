// Package monitor records per-search latency and outcome, computes rolling
// aggregates over a bounded history window, and derives health status plus
// optimization hints from them.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Latency classification thresholds.
const (
	// SlowThreshold marks a query as slow.
	SlowThreshold = 1 * time.Second
	// CriticalThreshold marks a query as critically slow.
	CriticalThreshold = 3 * time.Second
)

// Health thresholds over the recent window.
const (
	recentWindow          = 50
	degradedErrorRate     = 0.05
	unhealthyErrorRate    = 0.20
	degradedP95Threshold  = SlowThreshold
	unhealthyP95Threshold = CriticalThreshold
)

// DefaultHistorySize bounds the ring buffer when no size is configured.
const DefaultHistorySize = 1000

// Record is one observed search. Appended once, never mutated.
type Record struct {
	Term         string        `json:"term"`
	SearchType   string        `json:"searchType"`
	FilterKeys   []string      `json:"filterKeys,omitempty"`
	ResponseTime time.Duration `json:"responseTime"`
	ResultCount  int           `json:"resultCount"`
	CacheHit     bool          `json:"cacheHit"`
	Errored      bool          `json:"errored"`
	Timestamp    time.Time     `json:"timestamp"`
}

// TermCount pairs a search term with its observed frequency.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SlowQuery describes a query that crossed the slow threshold.
type SlowQuery struct {
	Term         string        `json:"term"`
	ResponseTime time.Duration `json:"responseTime"`
	Severity     string        `json:"severity"` // Slow | Critical
	Timestamp    time.Time     `json:"timestamp"`
}

// Metrics is the rolling aggregate over the retained history.
type Metrics struct {
	AverageResponseTime time.Duration
	CacheHitRate        float64
	TotalSearches       int
	ErrorRate           float64
	PopularTerms        []TermCount
	SlowQueries         []SlowQuery
}

// Impact levels for optimization suggestions.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Suggestion is a heuristic optimization hint.
type Suggestion struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Impact  string `json:"impact"`
	Query   string `json:"query,omitempty"`
}

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Status is the realtime health assessment.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Monitor keeps a bounded, insertion-ordered ring of search records.
// Safe for concurrent use.
type Monitor struct {
	mu      sync.RWMutex
	records []Record
	size    int
	now     func() time.Time
}

// New creates a monitor retaining at most size records; size <= 0 falls
// back to DefaultHistorySize.
func New(size int) *Monitor {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Monitor{size: size, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// RecordSearch appends one observation, evicting the oldest entry once the
// history is full.
func (m *Monitor) RecordSearch(term, searchType string, filterKeys []string, responseTime time.Duration, resultCount int, cacheHit, errored bool) {
	rec := Record{
		Term:         term,
		SearchType:   searchType,
		FilterKeys:   filterKeys,
		ResponseTime: responseTime,
		ResultCount:  resultCount,
		CacheHit:     cacheHit,
		Errored:      errored,
		Timestamp:    m.now(),
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	if len(m.records) > m.size {
		m.records = m.records[len(m.records)-m.size:]
	}
	m.mu.Unlock()
}

// History returns a copy of the retained records in insertion order.
func (m *Monitor) History() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// LoadHistory seeds the monitor with previously persisted records, keeping
// only the newest entries that fit the configured size.
func (m *Monitor) LoadHistory(records []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) > m.size {
		records = records[len(records)-m.size:]
	}
	m.records = append(m.records[:0], records...)
}

// GetMetrics computes aggregates over the retained history window.
func (m *Monitor) GetMetrics() Metrics {
	records := m.History()
	if len(records) == 0 {
		return Metrics{}
	}

	var (
		total    time.Duration
		hits     int
		errs     int
		termFreq = make(map[string]int)
		slow     []SlowQuery
	)
	for _, r := range records {
		total += r.ResponseTime
		if r.CacheHit {
			hits++
		}
		if r.Errored {
			errs++
		}
		if t := strings.TrimSpace(r.Term); t != "" && !r.Errored {
			termFreq[strings.ToLower(t)]++
		}
		if r.ResponseTime >= SlowThreshold {
			severity := "Slow"
			if r.ResponseTime >= CriticalThreshold {
				severity = "Critical"
			}
			slow = append(slow, SlowQuery{
				Term:         r.Term,
				ResponseTime: r.ResponseTime,
				Severity:     severity,
				Timestamp:    r.Timestamp,
			})
		}
	}

	n := len(records)
	return Metrics{
		AverageResponseTime: total / time.Duration(n),
		CacheHitRate:        float64(hits) / float64(n),
		TotalSearches:       n,
		ErrorRate:           float64(errs) / float64(n),
		PopularTerms:        rankTerms(termFreq, metricsTopTerms),
		SlowQueries:         slow,
	}
}

// metricsTopTerms caps the term ranking embedded in Metrics for display.
// PopularTerms ranks over the full history and is not subject to it.
const metricsTopTerms = 10

// PopularTerms returns the top-n most frequent terms, most frequent first.
func (m *Monitor) PopularTerms(n int) []string {
	ranked := rankTerms(m.termFrequencies(), n)
	out := make([]string, len(ranked))
	for i, tc := range ranked {
		out[i] = tc.Term
	}
	return out
}

// termFrequencies counts successful, non-empty terms in the history.
func (m *Monitor) termFrequencies() map[string]int {
	freq := make(map[string]int)
	for _, r := range m.History() {
		if t := strings.TrimSpace(r.Term); t != "" && !r.Errored {
			freq[strings.ToLower(t)]++
		}
	}
	return freq
}

// Optimization heuristics.
const (
	compositeIndexHitCount = 10
	repeatedSlowTermCount  = 3
	zeroResultShareHint    = 0.30
)

// GetOptimizationSuggestions derives heuristic hints from the history:
// frequent multi-key filter combinations suggest a composite index, terms
// that are repeatedly slow suggest cache warming, and a high zero-result
// share suggests synonym coverage.
func (m *Monitor) GetOptimizationSuggestions() []Suggestion {
	records := m.History()
	if len(records) == 0 {
		return nil
	}

	var suggestions []Suggestion

	comboFreq := make(map[string]int)
	for _, r := range records {
		if len(r.FilterKeys) < 2 {
			continue
		}
		keys := append([]string(nil), r.FilterKeys...)
		sort.Strings(keys)
		comboFreq[strings.Join(keys, "+")]++
	}
	for combo, n := range comboFreq {
		if n >= compositeIndexHitCount {
			suggestions = append(suggestions, Suggestion{
				Type: "composite_index",
				Message: fmt.Sprintf(
					"%d queries used the filter combination %s; a composite index would avoid client-side filtering", n, combo),
				Impact: ImpactHigh,
				Query:  combo,
			})
		}
	}

	slowFreq := make(map[string]int)
	for _, r := range records {
		if r.ResponseTime >= SlowThreshold && r.Term != "" {
			slowFreq[strings.ToLower(r.Term)]++
		}
	}
	for term, n := range slowFreq {
		if n >= repeatedSlowTermCount {
			suggestions = append(suggestions, Suggestion{
				Type:    "cache_warming",
				Message: fmt.Sprintf("term %q was slow %d times; consider prefetching it", term, n),
				Impact:  ImpactMedium,
				Query:   term,
			})
		}
	}

	zero := 0
	for _, r := range records {
		if !r.Errored && r.ResultCount == 0 {
			zero++
		}
	}
	if share := float64(zero) / float64(len(records)); share >= zeroResultShareHint {
		suggestions = append(suggestions, Suggestion{
			Type: "zero_results",
			Message: fmt.Sprintf(
				"%.0f%% of searches returned no results; consider broadening synonyms or suggestions", share*100),
			Impact: ImpactLow,
		})
	}

	sortSuggestions(suggestions)
	return suggestions
}

// GetRealtimeStatus assesses the recent error rate and P95 latency.
func (m *Monitor) GetRealtimeStatus() Status {
	records := m.History()
	if len(records) > recentWindow {
		records = records[len(records)-recentWindow:]
	}
	if len(records) == 0 {
		return Status{Status: StatusHealthy, Message: "no searches recorded"}
	}

	errs := 0
	latencies := make([]time.Duration, 0, len(records))
	for _, r := range records {
		if r.Errored {
			errs++
		}
		latencies = append(latencies, r.ResponseTime)
	}
	errRate := float64(errs) / float64(len(records))
	p95 := percentile(latencies, 0.95)

	switch {
	case errRate > unhealthyErrorRate || p95 > unhealthyP95Threshold:
		return Status{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("error rate %.0f%%, p95 %s", errRate*100, p95),
		}
	case errRate > degradedErrorRate || p95 > degradedP95Threshold:
		return Status{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("error rate %.0f%%, p95 %s", errRate*100, p95),
		}
	default:
		return Status{Status: StatusHealthy, Message: "within thresholds"}
	}
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func rankTerms(freq map[string]int, n int) []TermCount {
	ranked := make([]TermCount, 0, len(freq))
	for t, c := range freq {
		ranked = append(ranked, TermCount{Term: t, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Term < ranked[j].Term
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func sortSuggestions(s []Suggestion) {
	rank := map[string]int{ImpactHigh: 0, ImpactMedium: 1, ImpactLow: 2}
	sort.SliceStable(s, func(i, j int) bool {
		return rank[s[i].Impact] < rank[s[j].Impact]
	})
}

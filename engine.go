package searchcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/cache"
	"github.com/arenahq/searchcore/internal/debounce"
	"github.com/arenahq/searchcore/internal/metrics"
	"github.com/arenahq/searchcore/internal/monitor"
	"github.com/arenahq/searchcore/internal/store"
)

// historyKey is the KV key under which search history is persisted across
// restarts.
const historyKey = "search_history"

// Options tune engine behavior. Zero durations and counts fall back to the
// defaults below.
type Options struct {
	EnableCaching       bool
	EnableFuzzyMatching bool
	EnableAnalytics     bool
	DefaultLimit        int
	MaxSearchTime       time.Duration
	ResultsTTL          time.Duration
	AutocompleteTTL     time.Duration
	AnalyticsTTL        time.Duration
	DebounceDelay       time.Duration
	DebounceMaxWait     time.Duration
	HistorySize         int
}

// DefaultOptions returns the standard engine configuration: everything
// enabled, 20-item pages, 5s search deadline, short-to-long cache TTLs.
func DefaultOptions() Options {
	return Options{
		EnableCaching:       true,
		EnableFuzzyMatching: true,
		EnableAnalytics:     true,
		DefaultLimit:        DefaultLimit,
		MaxSearchTime:       5 * time.Second,
		ResultsTTL:          5 * time.Minute,
		AutocompleteTTL:     time.Minute,
		AnalyticsTTL:        10 * time.Minute,
		DebounceDelay:       300 * time.Millisecond,
		DebounceMaxWait:     time.Second,
		HistorySize:         monitor.DefaultHistorySize,
	}
}

func (o *Options) applyDefaults() {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultLimit
	}
	if o.MaxSearchTime <= 0 {
		o.MaxSearchTime = 5 * time.Second
	}
	if o.ResultsTTL <= 0 {
		o.ResultsTTL = 5 * time.Minute
	}
	if o.AutocompleteTTL <= 0 {
		o.AutocompleteTTL = time.Minute
	}
	if o.AnalyticsTTL <= 0 {
		o.AnalyticsTTL = 10 * time.Minute
	}
	if o.DebounceDelay <= 0 {
		o.DebounceDelay = debounce.DefaultDelay
	}
	if o.DebounceMaxWait <= 0 {
		o.DebounceMaxWait = debounce.DefaultMaxWait
	}
	if o.HistorySize <= 0 {
		o.HistorySize = monitor.DefaultHistorySize
	}
}

// Engine is the search orchestrator: it validates queries, consults the
// caches, fans out to the document store, applies fuzzy and boolean
// matching client-side, ranks and paginates, and feeds the performance
// monitor. Construct one per process and share it.
type Engine struct {
	querier store.Querier
	kv      store.KV
	opts    Options
	logger  *zap.Logger

	results      *cache.Cache[*Results]
	autocomplete *cache.Cache[[]string]
	analytics    *cache.Cache[*Analytics]

	mon    *monitor.Monitor
	search *metrics.Search
	deb    *debounce.Debouncer[*Results]

	// savedMu serializes read-modify-write cycles on the saved-search
	// list; the KV store has no compare-and-set.
	savedMu sync.Mutex
}

// New creates an engine over the given store collaborators. Previously
// persisted search history, if any, is reloaded so popular terms survive
// restarts.
func New(ctx context.Context, querier store.Querier, kv store.KV, logger *zap.Logger, opts Options) (*Engine, error) {
	if querier == nil {
		return nil, fmt.Errorf("querier is required")
	}
	if kv == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.applyDefaults()

	e := &Engine{
		querier: querier,
		kv:      kv,
		opts:    opts,
		logger:  logger,
		results: cache.New[*Results](
			opts.ResultsTTL, cache.WithHitCounter[*Results](metrics.CacheCounter("results")),
		),
		autocomplete: cache.New[[]string](
			opts.AutocompleteTTL, cache.WithHitCounter[[]string](metrics.CacheCounter("autocomplete")),
		),
		analytics: cache.New[*Analytics](
			opts.AnalyticsTTL, cache.WithHitCounter[*Analytics](metrics.CacheCounter("analytics")),
		),
		mon:    monitor.New(opts.HistorySize),
		search: metrics.NewSearch(),
		deb:    debounce.New[*Results](opts.DebounceDelay, opts.DebounceMaxWait),
	}

	if err := e.loadHistory(ctx); err != nil {
		// A corrupt or missing history must not block startup.
		logger.Warn("Failed to load persisted search history", zap.Error(err))
	}
	return e, nil
}

// Monitor exposes the performance monitor for health and metrics readouts.
func (e *Engine) Monitor() *monitor.Monitor { return e.mon }

// ClearCaches drops every cached result set, suggestion list, and
// analytics snapshot.
func (e *Engine) ClearCaches() {
	e.results.Clear()
	e.autocomplete.Clear()
	e.analytics.Clear()
}

// InvalidateResults deletes cached result sets whose fingerprint matches
// the pattern; called when underlying data changes.
func (e *Engine) InvalidateResults(pattern string) (int, error) {
	n, err := e.results.Invalidate(pattern)
	if err != nil {
		return 0, newCacheError(err)
	}
	return n, nil
}

// InvalidateType drops cached results and suggestions affected by a
// mutation in one collection, including "all"-scoped entries.
func (e *Engine) InvalidateType(t SearchType) {
	pattern := fmt.Sprintf(`^type=(%s|%s)&`, t, TypeAll)
	if _, err := e.results.Invalidate(pattern); err != nil {
		e.logger.Warn("Result invalidation failed", zap.String("type", string(t)), zap.Error(err))
	}
	acPattern := fmt.Sprintf(`^ac:(%s|%s):`, t, TypeAll)
	if _, err := e.autocomplete.Invalidate(acPattern); err != nil {
		e.logger.Warn("Autocomplete invalidation failed", zap.String("type", string(t)), zap.Error(err))
	}
}

// Destroy flushes in-memory search history to the KV store and releases
// pending debounce state. The engine must not be used afterwards.
func (e *Engine) Destroy(ctx context.Context) error {
	e.deb.CancelAll()
	e.results.Stop()
	e.autocomplete.Stop()
	e.analytics.Stop()

	history := e.mon.History()
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal search history: %w", err)
	}
	if err := e.kv.Set(ctx, historyKey, string(data)); err != nil {
		return fmt.Errorf("persist search history: %w", err)
	}
	e.logger.Info("Search engine destroyed", zap.Int("history_records", len(history)))
	return nil
}

func (e *Engine) loadHistory(ctx context.Context) error {
	raw, err := e.kv.Get(ctx, historyKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	var records []monitor.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return fmt.Errorf("decode search history: %w", err)
	}
	e.mon.LoadHistory(records)
	return nil
}

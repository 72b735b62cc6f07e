// Package redis implements the store collaborators over Redis via rueidis.
// Documents live as JSON strings under <prefix>doc:<collection>:<id> and are
// listed with SCAN; predicate filtering happens client-side, consistent with
// the core's no-index assumption.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/arenahq/searchcore/internal/store"
)

var (
	_ store.Querier = (*Store)(nil)
	_ store.KV      = (*Store)(nil)
)

// scanBatch is the COUNT hint for SCAN iterations.
const scanBatch = 256

// Config holds connection parameters.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements store.Querier and store.KV via rueidis.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore creates a Redis-backed store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "searchcore:"
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// AddDocument stores a document in a collection under its "id" field.
func (s *Store) AddDocument(ctx context.Context, collection string, rec store.RawRecord) error {
	id := rec.String("id")
	if id == "" {
		return fmt.Errorf("document has no id field")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	cmd := s.client.B().Set().Key(s.docKey(collection, id)).Value(string(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	return nil
}

// RunQuery scans the collection's keyspace, decodes each document, and
// applies the predicates client-side.
func (s *Store) RunQuery(
	ctx context.Context, collection string,
	predicates []store.Predicate, orderBy string, limit int,
) ([]store.RawRecord, error) {
	keys, err := s.scanKeys(ctx, s.docKey(collection, "*"))
	if err != nil {
		return nil, err
	}

	out := make([]store.RawRecord, 0, len(keys))
	for _, key := range keys {
		cmd := s.client.B().Get().Key(key).Build()
		data, err := s.client.Do(ctx, cmd).AsBytes()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue // deleted between SCAN and GET
			}
			return nil, fmt.Errorf("get document %s: %w", key, err)
		}
		var rec store.RawRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", key, err)
		}
		if matchesAll(rec, predicates) {
			out = append(out, rec)
		}
	}

	sortRecords(out, orderBy)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get retrieves a KV value.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	cmd := s.client.B().Get().Key(s.kvKey(key)).Build()
	v, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", store.ErrKeyNotFound
		}
		return "", fmt.Errorf("kv get: %w", err)
	}
	return v, nil
}

// Set stores a KV value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	cmd := s.client.B().Set().Key(s.kvKey(key)).Value(value).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

// Delete removes a KV value.
func (s *Store) Delete(ctx context.Context, key string) error {
	cmd := s.client.B().Del().Key(s.kvKey(key)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("kv del: %w", err)
	}
	return nil
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + "doc:" + collection + ":" + id
}

func (s *Store) kvKey(key string) string {
	return s.prefix + "kv:" + key
}

func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Build()
		entry, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
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

func sortRecords(recs []store.RawRecord, orderBy string) {
	if orderBy == "" {
		return
	}
	// Descending, matching the memory driver.
	sort.SliceStable(recs, func(i, j int) bool {
		return less(recs[j], recs[i], orderBy)
	})
}

func less(a, b store.RawRecord, field string) bool {
	if av, ok := a[field].(string); ok {
		bv, _ := b[field].(string)
		return av < bv
	}
	return a.Int64(field) < b.Int64(field)
}

package searchcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arenahq/searchcore/internal/store"
)

const savedSearchesKey = "saved_searches"

// SavedSearch is a named query a user stored for reuse.
type SavedSearch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Query     Query     `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
	UseCount  int       `json:"useCount"`
}

// SaveSearch persists the query under the given name and returns the stored
// entry. The query is validated before it is written.
func (e *Engine) SaveSearch(ctx context.Context, name string, q Query) (*SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newInvalidQuery([]string{"saved search name must not be empty"})
	}
	q = q.withDefaults(e.opts.DefaultLimit)
	if violations := q.Validate(); len(violations) > 0 {
		return nil, newInvalidQuery(violations)
	}

	e.savedMu.Lock()
	defer e.savedMu.Unlock()

	list, err := e.loadSavedSearches(ctx)
	if err != nil {
		return nil, err
	}
	entry := SavedSearch{
		ID:        uuid.NewString(),
		Name:      name,
		Query:     q,
		CreatedAt: time.Now().UTC(),
	}
	list = append(list, entry)
	if err := e.storeSavedSearches(ctx, list); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SavedSearches returns all stored searches, newest first.
func (e *Engine) SavedSearches(ctx context.Context) ([]SavedSearch, error) {
	e.savedMu.Lock()
	defer e.savedMu.Unlock()

	list, err := e.loadSavedSearches(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// DeleteSavedSearch removes the entry with the given ID. Returns
// ErrSavedSearchNotFound when no entry matches.
func (e *Engine) DeleteSavedSearch(ctx context.Context, id string) error {
	e.savedMu.Lock()
	defer e.savedMu.Unlock()

	list, err := e.loadSavedSearches(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	found := false
	for _, s := range list {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return ErrSavedSearchNotFound
	}
	return e.storeSavedSearches(ctx, kept)
}

// RunSavedSearch executes the stored query by ID, incrementing its use
// count on success.
func (e *Engine) RunSavedSearch(ctx context.Context, id string) (*Results, error) {
	e.savedMu.Lock()
	var target *SavedSearch
	list, err := e.loadSavedSearches(ctx)
	if err != nil {
		e.savedMu.Unlock()
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			target = &list[i]
			break
		}
	}
	if target == nil {
		e.savedMu.Unlock()
		return nil, ErrSavedSearchNotFound
	}
	q := target.Query
	target.UseCount++
	if err := e.storeSavedSearches(ctx, list); err != nil {
		e.savedMu.Unlock()
		return nil, err
	}
	e.savedMu.Unlock()

	return e.Search(ctx, q, false)
}

func (e *Engine) loadSavedSearches(ctx context.Context) ([]SavedSearch, error) {
	raw, err := e.kv.Get(ctx, savedSearchesKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("load saved searches: %w", err))
	}
	var list []SavedSearch
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, newUnknown(fmt.Errorf("decode saved searches: %w", err))
	}
	return list, nil
}

func (e *Engine) storeSavedSearches(ctx context.Context, list []SavedSearch) error {
	data, err := json.Marshal(list)
	if err != nil {
		return newUnknown(fmt.Errorf("encode saved searches: %w", err))
	}
	if err := e.kv.Set(ctx, savedSearchesKey, string(data)); err != nil {
		return newNetworkError(fmt.Errorf("store saved searches: %w", err))
	}
	return nil
}

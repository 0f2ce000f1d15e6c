package catalog

import (
	"context"
	"strings"
	"sync/atomic"
)

// Source is the document store surface the engine queries. Implementations
// return items in store-iteration order; the engine preserves that order
// and applies no ranking of its own.
type Source interface {
	ListItems(ctx context.Context) ([]Item, error)
	ListItemsByCategory(ctx context.Context, category Category) ([]Item, error)
}

// Query is one catalog request: a category filter plus an optional
// free-text term.
type Query struct {
	Filter Filter
	Term   string
}

// Result carries the matched items and the generation of the request that
// produced them. Consumers must drop results whose generation has been
// superseded (see Engine.Latest).
type Result struct {
	Items      []Item
	Generation uint64
}

// Engine decides what subset of the store a query needs and filters the
// fetched documents when a search term is present. A term never widens the
// fetch beyond the category scope: search narrows within the current
// category, it does not search the whole catalog.
type Engine struct {
	source   Source
	issued   atomic.Uint64
	inflight atomic.Int64
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

func (e *Engine) Query(ctx context.Context, q Query) (Result, error) {
	generation := e.issued.Add(1)
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	var items []Item
	var err error
	if q.Filter.IsAll() {
		items, err = e.source.ListItems(ctx)
	} else {
		items, err = e.source.ListItemsByCategory(ctx, q.Filter.Category())
	}
	if err != nil {
		return Result{Generation: generation}, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	if term == "" {
		return Result{Items: items, Generation: generation}, nil
	}

	matched := make([]Item, 0, len(items))
	for _, item := range items {
		if Matches(item, term) {
			matched = append(matched, item)
		}
	}
	return Result{Items: matched, Generation: generation}, nil
}

// Latest reports whether generation belongs to the most recently issued
// request. The store offers no request cancellation, so superseded fetches
// run to completion and their results are discarded here instead.
func (e *Engine) Latest(generation uint64) bool {
	return e.issued.Load() == generation
}

// Loading reports whether any fetch is in flight, for UI consumption.
func (e *Engine) Loading() bool {
	return e.inflight.Load() > 0
}

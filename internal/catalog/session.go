package catalog

import (
	"context"
	"sync"
	"time"
)

// BrowseSession drives the catalog for one browsing user. Category changes
// refresh immediately; search keystrokes settle through the debouncer
// first. Every refresh carries the engine's request generation, and a
// result that arrives after a newer request was issued is discarded rather
// than rendered.
type BrowseSession struct {
	engine   *Engine
	render   func([]Item)
	onError  func(error)
	debounce *Debouncer

	mu       sync.Mutex
	filter   Filter
	term     string
	rendered uint64
	wg       sync.WaitGroup
}

// NewBrowseSession starts a session in its default state (all categories,
// empty term) and issues the initial fetch. onError may be nil.
func NewBrowseSession(ctx context.Context, engine *Engine, debounceDelay time.Duration, render func([]Item), onError func(error)) *BrowseSession {
	s := &BrowseSession{
		engine:  engine,
		render:  render,
		onError: onError,
		filter:  FilterAll(),
	}
	s.debounce = NewDebouncer(debounceDelay, func(term string) {
		s.mu.Lock()
		s.term = term
		s.mu.Unlock()
		s.refresh(ctx)
	})
	s.refresh(ctx)
	return s
}

// SetFilter applies a category selection. Unlike search input, a category
// click is a single deliberate action and refreshes without debouncing.
func (s *BrowseSession) SetFilter(ctx context.Context, filter Filter) {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()
	s.refresh(ctx)
}

// SetTerm feeds one keystroke's worth of search input. The engine only
// re-runs once the input has been quiet for the debounce delay.
func (s *BrowseSession) SetTerm(raw string) {
	s.debounce.Set(raw)
}

// Close cancels any pending debounced refresh and waits for in-flight
// fetches to finish.
func (s *BrowseSession) Close() {
	s.debounce.Stop()
	s.wg.Wait()
}

func (s *BrowseSession) refresh(ctx context.Context) {
	s.mu.Lock()
	query := Query{Filter: s.filter, Term: s.term}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.engine.Query(ctx, query)
		if err != nil {
			if s.onError != nil {
				s.onError(err)
			}
			return
		}

		s.mu.Lock()
		stale := !s.engine.Latest(result.Generation) || result.Generation <= s.rendered
		if !stale {
			s.rendered = result.Generation
		}
		s.mu.Unlock()
		if stale {
			return
		}
		s.render(result.Items)
	}()
}

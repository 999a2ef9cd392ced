package console

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Page is one fetched page of records and the total matching count.
type Page[T any] struct {
	Items []T
	Total int
}

// FetchFunc loads one page for the encoded query.
type FetchFunc[T any] func(ctx context.Context, query url.Values) (Page[T], error)

// ListController owns the query state of a list view, fetches pages and
// pushes rows to a sink. Responses older than the latest request are dropped.
type ListController[T any] struct {
	mu       sync.Mutex
	spec     ViewSpec
	fetch    FetchFunc[T]
	render   func(T) Row
	idOf     func(T) string
	sink     TableSink
	notifier Notifier
	logger   *zap.Logger

	state  QueryState
	seq    uint64
	total  int
	lookup map[string]T
}

// ListOptions wires a ListController.
type ListOptions[T any] struct {
	Spec     ViewSpec
	Fetch    FetchFunc[T]
	Render   func(T) Row
	ID       func(T) string
	Sink     TableSink
	Notifier Notifier
	Logger   *zap.Logger
}

// NewListController constructs a controller in its initial state. Nothing is fetched until Load.
func NewListController[T any](opts ListOptions[T]) *ListController[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListController[T]{
		spec:     opts.Spec,
		fetch:    opts.Fetch,
		render:   opts.Render,
		idOf:     opts.ID,
		sink:     opts.Sink,
		notifier: opts.Notifier,
		logger:   logger,
		state:    NewQueryState(opts.Spec),
		lookup:   make(map[string]T),
	}
}

// State returns a copy of the current query state.
func (c *ListController[T]) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pager returns the pager for the last load. A failed load counts no records.
func (c *ListController[T]) Pager() Pager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewPager(c.state.Page, c.state.PageSize, c.total)
}

// Lookup returns a record from the currently loaded page.
func (c *ListController[T]) Lookup(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.lookup[id]
	return record, ok
}

// Load refetches the current page.
func (c *ListController[T]) Load(ctx context.Context) {
	c.load(ctx, func(q QueryState) QueryState { return q })
}

// Reset returns to the first page keeping filters and reloads.
func (c *ListController[T]) Reset(ctx context.Context) {
	c.load(ctx, func(q QueryState) QueryState { return q.WithPage(0) })
}

// SetRole switches the role tab. Unknown tabs are ignored.
func (c *ListController[T]) SetRole(ctx context.Context, role string) {
	role = normalizeRole(role)
	if !c.spec.HasRoleTab(role) {
		c.logger.Debug("ignoring unknown role tab", zap.String("view", c.spec.Name), zap.String("role", role))
		return
	}
	c.load(ctx, func(q QueryState) QueryState { return q.WithRole(role) })
}

// SetSearch applies the search text immediately.
func (c *ListController[T]) SetSearch(ctx context.Context, text string) {
	c.load(ctx, func(q QueryState) QueryState { return q.WithSearch(text) })
}

// SetSort applies an encoded sort value such as "name_asc".
func (c *ListController[T]) SetSort(ctx context.Context, raw string) {
	key, dir := c.spec.ParseSort(raw)
	c.load(ctx, func(q QueryState) QueryState { return q.WithSort(key, dir) })
}

// GoTo loads a zero-based page.
func (c *ListController[T]) GoTo(ctx context.Context, page int) {
	c.load(ctx, func(q QueryState) QueryState { return q.WithPage(page) })
}

// Apply replaces the whole query state and loads once. An unknown role
// keeps the current tab and an unknown sort falls back to the view default.
func (c *ListController[T]) Apply(ctx context.Context, q QueryState) {
	key, dir := c.spec.ParseSort(q.SortKey + "_" + string(q.SortDir))
	c.load(ctx, func(cur QueryState) QueryState {
		next := cur.WithSort(key, dir).WithSearch(q.Search)
		if role := normalizeRole(q.Role); role != "" && c.spec.HasRoleTab(role) {
			next = next.WithRole(role)
		}
		return next.WithPage(q.Page)
	})
}

// Next moves forward unless already on the last page.
func (c *ListController[T]) Next(ctx context.Context) bool {
	pager := c.Pager()
	if pager.NextDisabled {
		return false
	}
	c.GoTo(ctx, pager.Page+1)
	return true
}

// Prev moves back unless already on the first page.
func (c *ListController[T]) Prev(ctx context.Context) bool {
	pager := c.Pager()
	if pager.PrevDisabled {
		return false
	}
	c.GoTo(ctx, pager.Page-1)
	return true
}

func (c *ListController[T]) load(ctx context.Context, mutate func(QueryState) QueryState) {
	c.mu.Lock()
	c.state = mutate(c.state)
	c.seq++
	seq := c.seq
	state := c.state
	c.sink.RenderRows(LoadingRows(state.PageSize, len(c.spec.Columns)))
	c.mu.Unlock()

	page, err := c.safeFetch(ctx, BuildQuery(state))

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("dropping stale page", zap.String("view", c.spec.Name), zap.Uint64("seq", seq), zap.Uint64("latest", c.seq))
		return
	}
	if err != nil {
		c.logger.Warn("list fetch failed", zap.String("view", c.spec.Name), zap.Error(err))
		c.sink.RenderRows([]Row{MessageRow(RowError, c.spec.LoadError)})
		c.notifier.Notify(LevelError, c.spec.LoadError)
		c.total = 0
		c.lookup = make(map[string]T)
		return
	}

	c.total = page.Total
	c.lookup = make(map[string]T, len(page.Items))
	rows := make([]Row, 0, len(page.Items))
	for _, item := range page.Items {
		c.lookup[c.idOf(item)] = item
		rows = append(rows, c.render(item))
	}
	if len(rows) == 0 {
		rows = append(rows, MessageRow(RowEmpty, c.spec.EmptyText))
	}
	c.sink.RenderRows(rows)
	c.sink.RenderPager(NewPager(state.Page, state.PageSize, page.Total))
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func (c *ListController[T]) safeFetch(ctx context.Context, query url.Values) (page Page[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return c.fetch(ctx, query)
}

// SearchDebouncer delays SetSearch until typing pauses.
type SearchDebouncer struct {
	debouncer *Debouncer
	apply     func(ctx context.Context, text string)
}

// NewSearchDebouncer wraps a controller's SetSearch.
func NewSearchDebouncer[T any](c *ListController[T], delay time.Duration) *SearchDebouncer {
	return &SearchDebouncer{debouncer: NewDebouncer(delay), apply: c.SetSearch}
}

// Type records a keystroke; only the last text of a burst is searched.
func (s *SearchDebouncer) Type(ctx context.Context, text string) {
	s.debouncer.Do(func() { s.apply(ctx, text) })
}

// Stop drops a pending search.
func (s *SearchDebouncer) Stop() {
	s.debouncer.Stop()
}

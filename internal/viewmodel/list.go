package viewmodel

import (
	"context"
	"strings"
	"sync"

	"github.com/petsalud/vet-cli/internal/clinic"
)

// DefaultPageSize is used when a ListConfig leaves PageSize at zero.
const DefaultPageSize = 10

// State of a list.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// FetchFunc loads a collection from the API.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

// Filter is a categorical selector. An empty value means "all".
//
// Match narrows the fetched snapshot locally. Remote, when set, may return
// a server query for a value; while such a query is the list's source the
// local Match of that filter is skipped since the server already narrowed.
type Filter[T any] struct {
	Name    string
	Label   string
	Options []Option
	Match   func(item T, value string) bool
	Remote  func(value string) FetchFunc[T]
}

// ListConfig describes one entity's list.
type ListConfig[T any] struct {
	Fetch    FetchFunc[T]
	Search   []func(T) string
	Filters  []Filter[T]
	PageSize int
}

// Request is one fetch handed out by Refresh. Only the latest request of a
// list may apply its result.
type Request[T any] struct {
	Gen   uint64
	fetch FetchFunc[T]
}

// Run performs the fetch.
func (r Request[T]) Run(ctx context.Context) ([]T, error) {
	return r.fetch(ctx)
}

// List holds a fetched snapshot and derives the displayed page from the
// search term, the filters and the page cursor. Safe for concurrent use.
type List[T any] struct {
	config ListConfig[T]

	mu       sync.Mutex
	state    State
	err      error
	snapshot []T
	filtered []T
	search   string
	filters  map[string]string
	page     int
	gen      uint64
}

// NewList creates an idle list.
func NewList[T any](config ListConfig[T]) *List[T] {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	return &List[T]{
		config:  config,
		filters: make(map[string]string),
		page:    1,
	}
}

// Refresh starts a new fetch generation and returns the request to run.
// Any request handed out earlier becomes stale.
func (l *List[T]) Refresh() Request[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.state = Loading
	return Request[T]{Gen: l.gen, fetch: l.source()}
}

// Apply stores the result of a request. It reports false, and changes
// nothing, when gen is not the latest generation.
func (l *List[T]) Apply(gen uint64, items []T, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	if err != nil {
		l.state = Failed
		l.err = err
		return true
	}
	l.state = Ready
	l.err = nil
	l.snapshot = items
	l.recompute()
	l.clampPage()
	return true
}

// Load runs a fresh request and applies it. A request overtaken by a newer
// one reports nothing, its error included.
func (l *List[T]) Load(ctx context.Context) error {
	req := l.Refresh()
	items, err := req.Run(ctx)
	if !l.Apply(req.Gen, items, err) {
		return nil
	}
	return err
}

// source picks the server query for the current filters.
func (l *List[T]) source() FetchFunc[T] {
	for _, f := range l.config.Filters {
		if fetch := l.remote(f); fetch != nil {
			return fetch
		}
	}
	return l.config.Fetch
}

func (l *List[T]) remote(f Filter[T]) FetchFunc[T] {
	if f.Remote == nil {
		return nil
	}
	return f.Remote(l.filters[f.Name])
}

// sourceFilter names the filter whose server query backs the list, or "".
func (l *List[T]) sourceFilter() string {
	for _, f := range l.config.Filters {
		if l.remote(f) != nil {
			return f.Name
		}
	}
	return ""
}

func (l *List[T]) sourceKey() string {
	name := l.sourceFilter()
	if name == "" {
		return ""
	}
	return name + "=" + l.filters[name]
}

func (l *List[T]) recompute() {
	term := strings.ToLower(strings.TrimSpace(l.search))
	source := l.sourceFilter()

	filtered := make([]T, 0, len(l.snapshot))
	for _, item := range l.snapshot {
		if l.matchFilters(item, source) && l.matchSearch(item, term) {
			filtered = append(filtered, item)
		}
	}
	l.filtered = filtered
}

// matchFilters applies the categorical filters. The source filter was
// already applied by the API.
func (l *List[T]) matchFilters(item T, source string) bool {
	for _, f := range l.config.Filters {
		value := l.filters[f.Name]
		if value == "" || f.Match == nil || f.Name == source {
			continue
		}
		if !f.Match(item, value) {
			return false
		}
	}
	return true
}

func (l *List[T]) matchSearch(item T, term string) bool {
	if term == "" {
		return true
	}
	for _, text := range l.config.Search {
		if strings.Contains(strings.ToLower(text(item)), term) {
			return true
		}
	}
	return false
}

func (l *List[T]) totalPages() int {
	n := len(l.filtered)
	return (n + l.config.PageSize - 1) / l.config.PageSize
}

func (l *List[T]) clampPage() {
	last := max(1, l.totalPages())
	l.page = min(max(1, l.page), last)
}

// SetSearch changes the search term and goes back to page 1.
func (l *List[T]) SetSearch(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = term
	l.page = 1
	l.recompute()
}

// SetFilter changes a categorical filter and goes back to page 1. It
// reports true when the new value needs a different server query, in which
// case the caller must Refresh.
func (l *List[T]) SetFilter(name, value string) (refetch bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.sourceKey()
	if value == "" {
		delete(l.filters, name)
	} else {
		l.filters[name] = value
	}
	l.page = 1
	l.recompute()
	return l.sourceKey() != before
}

// ClearFilters drops the search term and every filter.
func (l *List[T]) ClearFilters() (refetch bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.sourceKey()
	l.search = ""
	l.filters = make(map[string]string)
	l.page = 1
	l.recompute()
	return l.sourceKey() != before
}

// SetPage moves to page n. Pages outside [1, TotalPages] are ignored.
func (l *List[T]) SetPage(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 1 || n > l.totalPages() {
		return false
	}
	l.page = n
	return true
}

func (l *List[T]) NextPage() bool { return l.SetPage(l.CurrentPage() + 1) }
func (l *List[T]) PrevPage() bool { return l.SetPage(l.CurrentPage() - 1) }

// Page returns the records on the current page.
func (l *List[T]) Page() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := (l.page - 1) * l.config.PageSize
	if start >= len(l.filtered) {
		return nil
	}
	end := min(start+l.config.PageSize, len(l.filtered))
	return append([]T(nil), l.filtered[start:end]...)
}

// Filtered returns every record that passes the filters and search.
func (l *List[T]) Filtered() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.filtered...)
}

// Snapshot returns the last fetched collection.
func (l *List[T]) Snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.snapshot...)
}

func (l *List[T]) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPages()
}

func (l *List[T]) CurrentPage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

func (l *List[T]) PageSize() int { return l.config.PageSize }

func (l *List[T]) Search() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

// Filter returns the current value of a filter ("" for all).
func (l *List[T]) Filter(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters[name]
}

// Filters returns the configured filters.
func (l *List[T]) Filters() []Filter[T] { return l.config.Filters }

// State returns the list state and the error of the last failed fetch.
func (l *List[T]) State() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.err
}

// Action is a confirmed, state-changing operation on a record.
type Action struct {
	Prompt  string // empty means no confirmation
	Success string
	Failure string
	Run     func(ctx context.Context) error

	// NoReload skips the refetch, for actions that change no record.
	NoReload bool
}

// Act asks for confirmation, runs the action and re-fetches on success.
// A declined prompt does nothing. On failure the list is left untouched and
// the error is reported through n.
func (l *List[T]) Act(ctx context.Context, n Notifier, a Action) (bool, error) {
	if a.Prompt != "" {
		ok, err := n.Confirm(a.Prompt).Wait(ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	if err := a.Run(ctx); err != nil {
		n.Error(clinic.Describe(err, a.Failure))
		return false, err
	}
	if a.Success != "" {
		n.Success(a.Success)
	}
	if a.NoReload {
		return true, nil
	}
	if err := l.Load(ctx); err != nil {
		n.Error(clinic.Describe(err, "Error al recargar la lista"))
		return true, err
	}
	return true, nil
}

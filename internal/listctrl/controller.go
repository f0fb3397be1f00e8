// Package listctrl implements the server-paginated list controller shared
// by the merchant and transaction screens. One controller owns one
// listing's pagination, sort, and page-size state; any accepted state
// change triggers a fresh fetch whose result replaces the previous page
// wholesale.
package listctrl

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/models"
)

// Fetcher loads one page of results for the given query.
type Fetcher[T any] func(ctx context.Context, q models.ListQuery) (models.ListResult[T], error)

// Status is the controller's fetch state.
type Status int

const (
	Idle Status = iota
	Loading
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Loading:
		return "LOADING"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Snapshot is a consistent copy of the controller's visible state.
type Snapshot[T any] struct {
	Query      models.ListQuery
	Items      []T
	TotalPages int
	Status     Status
	Err        error
}

// Controller drives one server-backed listing. Merchant and transaction
// screens each run their own instance; no state is shared between them.
//
// Supersession guarantee: every fetch carries a sequence number, and only
// the response matching the most recently issued query may mutate visible
// state. A slow stale response can never overwrite a newer result.
type Controller[T any] struct {
	fetch Fetcher[T]

	mu         sync.Mutex
	query      models.ListQuery
	items      []T
	totalPages int
	status     Status
	err        error
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	onChange   func()
}

// New constructs a controller with the given initial query. Call Load to
// issue the first fetch.
func New[T any](fetch Fetcher[T], initial models.ListQuery) *Controller[T] {
	if initial.PageSize <= 0 {
		initial.PageSize = models.DefaultListQuery().PageSize
	}
	if initial.PageNumber < 0 {
		initial.PageNumber = 0
	}
	return &Controller[T]{fetch: fetch, query: initial}
}

// OnChange registers a callback invoked after every visible state change.
// Set it before Load; the callback runs outside the controller lock.
func (c *Controller[T]) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Query:      c.query,
		Items:      items,
		TotalPages: c.totalPages,
		Status:     c.status,
		Err:        c.err,
	}
}

// Load issues the initial fetch for the current query.
func (c *Controller[T]) Load() {
	c.mu.Lock()
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// Refresh re-fetches the current query. Mutation workflows call this after
// a successful round trip.
func (c *Controller[T]) Refresh() {
	c.Load()
}

// SetPage requests a page jump. Requests below 0, or at/above the last
// known totalPages, are no-ops.
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	if page < 0 || page == c.query.PageNumber || (c.totalPages > 0 && page >= c.totalPages) {
		c.mu.Unlock()
		return
	}
	c.query.PageNumber = page
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// NextPage advances one page, bounds-checked.
func (c *Controller[T]) NextPage() {
	c.mu.Lock()
	page := c.query.PageNumber + 1
	c.mu.Unlock()
	c.SetPage(page)
}

// PrevPage goes back one page, bounds-checked.
func (c *Controller[T]) PrevPage() {
	c.mu.Lock()
	page := c.query.PageNumber - 1
	c.mu.Unlock()
	c.SetPage(page)
}

// SetPageSize changes the page size and resets the page number to 0 so the
// listing never lands on a now out-of-range page.
func (c *Controller[T]) SetPageSize(size int) {
	c.mu.Lock()
	if size <= 0 || size == c.query.PageSize {
		c.mu.Unlock()
		return
	}
	c.query.PageSize = size
	c.query.PageNumber = 0
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// ToggleSort selects a sort column. Selecting the active column flips the
// direction; selecting a different column makes it active with ASC.
func (c *Controller[T]) ToggleSort(column string) {
	c.mu.Lock()
	if column == c.query.SortColumn {
		c.query.SortDirection = c.query.SortDirection.Toggle()
	} else {
		c.query.SortColumn = column
		c.query.SortDirection = models.SortAsc
	}
	c.startFetchLocked()
	c.mu.Unlock()
	c.notify()
}

// Close abandons interest in any in-flight fetch and rejects all further
// state changes. Called when the owning screen unmounts.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// startFetchLocked supersedes any in-flight fetch and launches a new one
// for the current query. Caller holds c.mu.
func (c *Controller[T]) startFetchLocked() {
	if c.closed {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	seq := c.seq
	q := c.query
	c.status = Loading

	go func() {
		res, err := c.fetch(ctx, q)
		cancel()
		c.complete(seq, res, err)
	}()
}

// complete applies a fetch outcome, discarding it when it no longer
// matches the latest issued query.
func (c *Controller[T]) complete(seq uint64, res models.ListResult[T], err error) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Stale-but-visible: keep the previous items on a failed fetch
		// rather than blanking the list.
		c.status = Error
		c.err = err
		log.Warn().Err(err).Interface("query", c.query).Msg("list fetch failed")
		c.mu.Unlock()
		c.notify()
		return
	}

	c.items = res.Items
	c.totalPages = res.TotalPages
	c.status = Idle
	c.err = nil

	// The page number may turn out to be past the end once totalPages is
	// known (rows deleted, page size grown). Clamp and refetch.
	if res.TotalPages > 0 && c.query.PageNumber >= res.TotalPages {
		c.query.PageNumber = res.TotalPages - 1
		c.startFetchLocked()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller[T]) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

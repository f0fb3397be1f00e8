package listctrl_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaylabs/payconsole/internal/listctrl"
	"github.com/gatewaylabs/payconsole/internal/models"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func query(page, size int) models.ListQuery {
	return models.ListQuery{PageNumber: page, PageSize: size, SortColumn: "id", SortDirection: models.SortAsc}
}

// pageOf builds a one-item result tagged with the query's page number so
// tests can tell which fetch produced the visible state.
func pageOf(q models.ListQuery, totalPages int) models.ListResult[int] {
	return models.ListResult[int]{Items: []int{q.PageNumber}, TotalPages: totalPages}
}

func waitIdle[T any](t *testing.T, c *listctrl.Controller[T]) listctrl.Snapshot[T] {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Snapshot().Status == listctrl.Idle
	}, waitFor, tick)
	return c.Snapshot()
}

func TestSortTogglePolicy(t *testing.T) {
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		return pageOf(q, 1), nil
	}
	c := listctrl.New(fetch, query(0, 10))
	defer c.Close()

	c.ToggleSort("name")
	snap := c.Snapshot()
	assert.Equal(t, "name", snap.Query.SortColumn)
	assert.Equal(t, models.SortAsc, snap.Query.SortDirection)

	c.ToggleSort("name")
	assert.Equal(t, models.SortDesc, c.Snapshot().Query.SortDirection)

	c.ToggleSort("name")
	assert.Equal(t, models.SortAsc, c.Snapshot().Query.SortDirection)

	// A different column always starts over at ASC, even from DESC.
	c.ToggleSort("name")
	c.ToggleSort("email")
	snap = c.Snapshot()
	assert.Equal(t, "email", snap.Query.SortColumn)
	assert.Equal(t, models.SortAsc, snap.Query.SortDirection)
}

func TestPageSizeChangeResetsPage(t *testing.T) {
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		return pageOf(q, 5), nil
	}
	c := listctrl.New(fetch, query(0, 10))
	defer c.Close()

	c.Load()
	waitIdle(t, c)

	c.SetPage(3)
	waitIdle(t, c)
	require.Equal(t, 3, c.Snapshot().Query.PageNumber)

	c.SetPageSize(25)
	snap := c.Snapshot()
	assert.Equal(t, 25, snap.Query.PageSize)
	assert.Equal(t, 0, snap.Query.PageNumber)
}

func TestPageNavigationBounds(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		calls.Add(1)
		return pageOf(q, 3), nil
	}
	c := listctrl.New(fetch, query(0, 10))
	defer c.Close()

	c.Load()
	waitIdle(t, c)
	fetched := calls.Load()

	c.SetPage(-1)
	c.SetPage(3) // totalPages is 3, max valid page is 2
	c.SetPage(7)
	c.PrevPage() // already at 0

	assert.Equal(t, 0, c.Snapshot().Query.PageNumber)
	assert.Equal(t, fetched, calls.Load(), "out-of-bounds requests must not fetch")

	c.SetPage(2)
	waitIdle(t, c)
	assert.Equal(t, 2, c.Snapshot().Query.PageNumber)

	c.NextPage() // would be page 3, a no-op
	assert.Equal(t, 2, c.Snapshot().Query.PageNumber)
}

func TestStaleResponseNeverOverwritesNewer(t *testing.T) {
	started := make(chan string, 2)
	gate := make(chan struct{})
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[string], error) {
		started <- q.SortColumn
		if q.SortColumn == "slow" {
			<-gate
			return models.ListResult[string]{Items: []string{"slow"}, TotalPages: 1}, nil
		}
		return models.ListResult[string]{Items: []string{"fast"}, TotalPages: 1}, nil
	}
	c := listctrl.New(fetch, models.ListQuery{PageSize: 10, SortColumn: "slow", SortDirection: models.SortAsc})
	defer c.Close()

	c.Load()
	<-started // the slow fetch is in flight

	c.ToggleSort("fast") // supersedes it
	<-started

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Status == listctrl.Idle && len(s.Items) == 1 && s.Items[0] == "fast"
	}, waitFor, tick)

	// Now let the first fetch resolve late. It must be discarded.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, []string{"fast"}, snap.Items)
	assert.Equal(t, listctrl.Idle, snap.Status)
}

func TestFailedFetchKeepsStaleItems(t *testing.T) {
	var fail atomic.Bool
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		if fail.Load() {
			return models.ListResult[int]{}, assert.AnError
		}
		return pageOf(q, 3), nil
	}
	c := listctrl.New(fetch, query(0, 10))
	defer c.Close()

	c.Load()
	waitIdle(t, c)
	require.Equal(t, []int{0}, c.Snapshot().Items)

	fail.Store(true)
	c.ToggleSort("name")

	require.Eventually(t, func() bool {
		return c.Snapshot().Status == listctrl.Error
	}, waitFor, tick)

	snap := c.Snapshot()
	assert.Equal(t, []int{0}, snap.Items, "stale items stay visible on failure")
	assert.ErrorIs(t, snap.Err, assert.AnError)

	// A retry of the same action recovers.
	fail.Store(false)
	c.Refresh()
	snap = waitIdle(t, c)
	assert.NoError(t, snap.Err)
}

func TestOutOfRangePageClampsAfterFetch(t *testing.T) {
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		return pageOf(q, 3), nil
	}
	// Page 9 no longer exists on a 3-page result set.
	c := listctrl.New(fetch, query(9, 10))
	defer c.Close()

	c.Load()
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Status == listctrl.Idle && s.Query.PageNumber == 2
	}, waitFor, tick)
	assert.Equal(t, []int{2}, c.Snapshot().Items, "the clamped page was refetched")
}

func TestCloseAbandonsInFlightFetch(t *testing.T) {
	gate := make(chan struct{})
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		<-gate
		return pageOf(q, 1), nil
	}
	c := listctrl.New(fetch, query(0, 10))

	c.Load()
	c.Close()
	close(gate)

	time.Sleep(50 * time.Millisecond)
	snap := c.Snapshot()
	assert.Empty(t, snap.Items, "no update after unmount")

	// And the controller rejects further state changes.
	c.SetPage(1)
	assert.Equal(t, 0, c.Snapshot().Query.PageNumber)
}

func TestOnChangeFiresOnTransitions(t *testing.T) {
	fetch := func(ctx context.Context, q models.ListQuery) (models.ListResult[int], error) {
		return pageOf(q, 3), nil
	}
	c := listctrl.New(fetch, query(0, 10))
	defer c.Close()

	var fired atomic.Int32
	c.OnChange(func() { fired.Add(1) })

	c.Load()
	waitIdle(t, c)
	assert.GreaterOrEqual(t, fired.Load(), int32(2), "loading and idle transitions both notify")
}

package services

import (
	"context"
	"errors"
	"sync"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
)

// ErrStaleResponse is returned by Refresh when a newer fetch was issued
// while this one was in flight; its result is discarded.
var ErrStaleResponse = errors.New("stale list response discarded")

type FetchFunc[T any] func(ctx context.Context, q domain.ListQuery) (domain.Page[T], error)

type Pager struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type ListView[T any] struct {
	Items []T
	Query domain.ListQuery
	Pager Pager
	// LocationLocked is set when the identity's location is a fixed filter.
	LocationLocked bool
}

// ListController owns the filter and pagination state of one list screen
// and the fetch that backs it.
type ListController[T any] struct {
	fetch FetchFunc[T]

	mu            sync.Mutex
	query         domain.ListQuery
	fixedLocation int64
	items         []T
	totalPages    int
	issued        uint64
}

func NewListController[T any](fetch FetchFunc[T]) *ListController[T] {
	return &ListController[T]{
		fetch:      fetch,
		query:      domain.DefaultListQuery(),
		totalPages: 1,
	}
}

// Scope applies the identity's location rule: staff are pinned to their own
// location, admins may pick any location or all of them.
func (c *ListController[T]) Scope(identity domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if identity.Role == domain.RoleStaff {
		c.fixedLocation = identity.LocationID
		c.query.LocationID = identity.LocationID
		return
	}
	c.fixedLocation = 0
}

// SetFilter replaces the filter fields. Any change resets the page to 1.
// It reports whether anything changed.
func (c *ListController[T]) SetFilter(f domain.Filter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fixedLocation != 0 {
		f.LocationID = c.fixedLocation
	}
	if c.query.Filter().Equal(f) {
		return false
	}
	c.query.Search = f.Search
	c.query.Status = f.Status
	c.query.LocationID = f.LocationID
	c.query.StartDate = f.StartDate
	c.query.EndDate = f.EndDate
	c.query.Page = 1
	return true
}

// SetLimit changes the page size, which also resets the page.
func (c *ListController[T]) SetLimit(limit int) (bool, error) {
	if !domain.ValidPageSize(limit) {
		return false, domain.Invalid("Invalid page size")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.query.Limit == limit {
		return false, nil
	}
	c.query.Limit = limit
	c.query.Page = 1
	return true, nil
}

// GoTo moves to page, clamped to [1, totalPages]. Other filters are kept.
func (c *ListController[T]) GoTo(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	page = clamp(page, 1, c.lastPage())
	if page == c.query.Page {
		return false
	}
	c.query.Page = page
	return true
}

func (c *ListController[T]) Next() bool {
	c.mu.Lock()
	page := c.query.Page + 1
	c.mu.Unlock()
	return c.GoTo(page)
}

func (c *ListController[T]) Prev() bool {
	c.mu.Lock()
	page := c.query.Page - 1
	c.mu.Unlock()
	return c.GoTo(page)
}

// Refresh fetches the current query. Only the most recently issued fetch
// may update the controller; older responses return ErrStaleResponse. On
// failure the previous items are kept.
func (c *ListController[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	token := c.issued
	q := c.query
	c.mu.Unlock()

	page, err := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.issued {
		return ErrStaleResponse
	}
	if err != nil {
		return err
	}
	c.items = page.Items
	c.totalPages = page.TotalPages
	if c.totalPages < 1 {
		c.totalPages = 1
	}
	return nil
}

func (c *ListController[T]) Query() domain.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *ListController[T]) View() ListView[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return ListView[T]{
		Items:          items,
		Query:          c.query,
		Pager:          c.pager(),
		LocationLocked: c.fixedLocation != 0,
	}
}

// Find returns the first loaded item matching match.
func (c *ListController[T]) Find(match func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *ListController[T]) pager() Pager {
	last := c.lastPage()
	p := Pager{Page: c.query.Page, TotalPages: last}
	p.HasPrev = c.query.Page > 1
	p.HasNext = c.query.Page < last
	if p.HasPrev {
		p.PrevPage = c.query.Page - 1
	}
	if p.HasNext {
		p.NextPage = c.query.Page + 1
	}
	return p
}

func (c *ListController[T]) lastPage() int {
	if c.totalPages < 1 {
		return 1
	}
	return c.totalPages
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

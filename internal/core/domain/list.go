package domain

import "time"

const DefaultPageSize = 10

var PageSizes = []int{10, 20, 50, 100}

func ValidPageSize(limit int) bool {
	for _, s := range PageSizes {
		if s == limit {
			return true
		}
	}
	return false
}

// ListQuery is the filter and pagination state of one list screen.
// A zero LocationID means "all locations".
type ListQuery struct {
	Page       int
	Limit      int
	Search     string
	Status     PackageStatus
	LocationID int64
	StartDate  *time.Time
	EndDate    *time.Time
}

func DefaultListQuery() ListQuery {
	return ListQuery{Page: 1, Limit: DefaultPageSize}
}

// Filter is the subset of ListQuery a user edits; any change to it resets
// the page.
type Filter struct {
	Search     string
	Status     PackageStatus
	LocationID int64
	StartDate  *time.Time
	EndDate    *time.Time
}

func (q ListQuery) Filter() Filter {
	return Filter{
		Search:     q.Search,
		Status:     q.Status,
		LocationID: q.LocationID,
		StartDate:  q.StartDate,
		EndDate:    q.EndDate,
	}
}

func (f Filter) Equal(o Filter) bool {
	return f.Search == o.Search &&
		f.Status == o.Status &&
		f.LocationID == o.LocationID &&
		sameDay(f.StartDate, o.StartDate) &&
		sameDay(f.EndDate, o.EndDate)
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(DateLayout) == b.Format(DateLayout)
}

// Page is one page of a paginated list response.
type Page[T any] struct {
	Items      []T
	TotalPages int
}

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

var statusOptions = []domain.Option{
	{Value: "", Label: "All statuses"},
	{Value: string(domain.StatusStored), Label: domain.StatusStored.Label()},
	{Value: string(domain.StatusPickedUp), Label: domain.StatusPickedUp.Label()},
	{Value: string(domain.StatusDestroyed), Label: domain.StatusDestroyed.Label()},
}

// applyListParams feeds the list query string into c. The filter form sends
// "filter"; pager links send only "page"; the page size selector sends
// "limit".
func applyListParams[T any](c *services.ListController[T], q url.Values) error {
	if q.Has("filter") {
		f, err := parseFilter(q)
		if err != nil {
			return err
		}
		c.SetFilter(f)
	}
	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			return domain.Invalid("Invalid page size")
		}
		if _, err := c.SetLimit(limit); err != nil {
			return err
		}
	}
	if q.Has("page") {
		c.GoTo(parsePositiveInt(q.Get("page"), 1))
	}
	return nil
}

func parseFilter(q url.Values) (domain.Filter, error) {
	f := domain.Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: domain.PackageStatus(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.Filter{}, domain.Invalid("Invalid status")
	}
	id, err := parseOptionalID(q.Get("locationId"))
	if err != nil {
		return domain.Filter{}, err
	}
	f.LocationID = id

	start, err := parseOptionalDate(q.Get("startDate"))
	if err != nil {
		return domain.Filter{}, err
	}
	end, err := parseOptionalDate(q.Get("endDate"))
	if err != nil {
		return domain.Filter{}, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return domain.Filter{}, domain.Invalid("End date must not be before start date")
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, time.Local)
	if err != nil {
		return nil, domain.Invalid("Invalid date")
	}
	return &t, nil
}

func parseOptionalID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, domain.Invalid("Invalid selection")
	}
	return id, nil
}

// parseAmount reads a rupiah amount; blank means zero.
func parseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalid("Please enter valid prices")
	}
	return v, nil
}

// pathID reads the {id} path segment. Unknown ids are answered with 404.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func checked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

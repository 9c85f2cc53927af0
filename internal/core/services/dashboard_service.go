package services

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const defaultDashboardDays = 7

type DashboardService struct {
	api ports.DashboardAPI
	now func() time.Time
}

func NewDashboardService(api ports.DashboardAPI) *DashboardService {
	return &DashboardService{api: api, now: time.Now}
}

// DefaultQuery is the last seven days, daily, all locations.
func (s *DashboardService) DefaultQuery() domain.DashboardQuery {
	end := startOfDay(s.now())
	return domain.DashboardQuery{
		StartDate: end.AddDate(0, 0, -defaultDashboardDays),
		EndDate:   end,
		Period:    domain.PeriodDaily,
	}
}

// Normalize validates q for identity. The location filter only applies to
// admins; staff statistics are scoped by the server.
func (s *DashboardService) Normalize(identity domain.Identity, q domain.DashboardQuery) (domain.DashboardQuery, error) {
	def := s.DefaultQuery()
	if q.Period == "" {
		q.Period = def.Period
	}
	if !q.Period.Valid() {
		return def, domain.Invalid("Invalid period")
	}
	if q.StartDate.IsZero() {
		q.StartDate = def.StartDate
	}
	if q.EndDate.IsZero() {
		q.EndDate = def.EndDate
	}
	if q.EndDate.Before(q.StartDate) {
		return def, domain.Invalid("End date must not be before start date")
	}
	if !identity.IsAdmin() {
		q.LocationID = 0
	}
	return q, nil
}

// Load fetches statistics. On failure the returned dashboard is empty.
func (s *DashboardService) Load(ctx context.Context, sess *Session, q domain.DashboardQuery) (domain.Dashboard, error) {
	q, err := s.Normalize(identityOf(sess), q)
	if err != nil {
		return domain.Dashboard{}, err
	}
	var dash domain.Dashboard
	err = authorized(ctx, sess, func(token string) error {
		var err error
		dash, err = s.api.DashboardStats(ctx, token, q)
		return err
	})
	if err != nil {
		return domain.Dashboard{}, fail("load dashboard", err, Messages{Generic: "Failed to load dashboard data"})
	}
	return dash, nil
}

// FormatRupiah renders an amount the way the stat cards show it,
// e.g. "Rp 250,000".
func FormatRupiah(amount int64) string {
	return "Rp " + humanize.Comma(amount)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

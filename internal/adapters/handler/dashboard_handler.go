package handler

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

type statCard struct {
	Label string
	Value string
	Icon  string
}

type dashboardView struct {
	Query     domain.DashboardQuery
	Dashboard domain.Dashboard
	Cards     []statCard
	Periods   []domain.Option
	Locations []domain.Location
	IsAdmin   bool
}

func (c *Console) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	identity := c.identity(r)
	var inline []notice

	q, err := dashboardQuery(r)
	if err == nil {
		q, err = c.svc.Dashboard.Normalize(identity, q)
	}
	if err != nil {
		inline = append(inline, failure(services.Message(err)))
		q = c.svc.Dashboard.DefaultQuery()
	}

	dash, err := c.svc.Dashboard.Load(r.Context(), sess, q)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	view := dashboardView{
		Query:     q,
		Dashboard: dash,
		Cards:     statCards(dash.Stats),
		Periods:   domain.Periods,
		IsAdmin:   identity.IsAdmin(),
	}
	if view.IsAdmin {
		locations, err := c.svc.Locations.All(r.Context(), sess)
		if err != nil {
			inline = append(inline, failure(services.Message(err)))
		}
		view.Locations = locations
	}
	c.render(w, r, http.StatusOK, "dashboard.html", view, inline...)
}

func dashboardQuery(r *http.Request) (domain.DashboardQuery, error) {
	values := r.URL.Query()
	var q domain.DashboardQuery
	start, err := parseOptionalDate(values.Get("startDate"))
	if err != nil {
		return q, err
	}
	end, err := parseOptionalDate(values.Get("endDate"))
	if err != nil {
		return q, err
	}
	if start != nil {
		q.StartDate = *start
	}
	if end != nil {
		q.EndDate = *end
	}
	q.Period = domain.Period(values.Get("period"))
	q.LocationID, err = parseOptionalID(values.Get("locationId"))
	return q, err
}

func statCards(s domain.Stats) []statCard {
	return []statCard{
		{Label: "Received Today", Value: humanize.Comma(int64(s.ReceivedToday)), Icon: "inbox"},
		{Label: "Picked Up Today", Value: humanize.Comma(int64(s.PickedUpToday)), Icon: "check"},
		{Label: "Pending Pickup", Value: humanize.Comma(int64(s.PendingPickup)), Icon: "clock"},
		{Label: "Revenue Today", Value: services.FormatRupiah(s.RevenueToday), Icon: "money"},
	}
}

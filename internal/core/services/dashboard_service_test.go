package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
	"github.com/isavralabel/pickpoint-console/test/mocks"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "Rp 0"},
		{999, "Rp 999"},
		{250000, "Rp 250,000"},
		{1234567, "Rp 1,234,567"},
	}
	for _, tt := range tests {
		if got := services.FormatRupiah(tt.amount); got != tt.expected {
			t.Errorf("FormatRupiah(%d): expected %q, got %q", tt.amount, tt.expected, got)
		}
	}
}

func TestDashboardNormalize(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	svc := services.NewDashboardService(mocks.NewMockPickPointAPI())
	svc.SetClock(func() time.Time { return now })

	def := svc.DefaultQuery()
	if def.Period != domain.PeriodDaily || !def.EndDate.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected default query %+v", def)
	}
	if days := def.EndDate.Sub(def.StartDate).Hours() / 24; days != 7 {
		t.Errorf("expected a seven day window, got %v days", days)
	}

	staffQ, err := svc.Normalize(mocks.StaffIdentity(3), domain.DashboardQuery{LocationID: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if staffQ.LocationID != 0 {
		t.Errorf("expected staff location filter to be dropped, got %d", staffQ.LocationID)
	}

	adminQ, _ := svc.Normalize(mocks.AdminIdentity(), domain.DashboardQuery{LocationID: 9, Period: domain.PeriodMonthly})
	if adminQ.LocationID != 9 || adminQ.Period != domain.PeriodMonthly {
		t.Errorf("expected admin filter to be kept, got %+v", adminQ)
	}

	if _, err := svc.Normalize(mocks.AdminIdentity(), domain.DashboardQuery{Period: "hourly"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected invalid period to be rejected, got %v", err)
	}
	inverted := domain.DashboardQuery{StartDate: now, EndDate: now.AddDate(0, 0, -1)}
	if _, err := svc.Normalize(mocks.AdminIdentity(), inverted); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected inverted range to be rejected, got %v", err)
	}
}

func TestDashboardLoad(t *testing.T) {
	f := newFixture()
	sess := f.login(t, mocks.AdminIdentity())
	f.api.Dashboard = domain.Dashboard{Stats: domain.Stats{ReceivedToday: 4, RevenueToday: 250000}}
	svc := services.NewDashboardService(f.api)

	dash, err := svc.Load(context.Background(), sess, svc.DefaultQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dash.Stats.ReceivedToday != 4 {
		t.Errorf("expected stats from the API, got %+v", dash.Stats)
	}

	f.api.FailWith("DashboardStats", mocks.Unavailable())
	dash, err = svc.Load(context.Background(), sess, svc.DefaultQuery())
	if msg := services.Message(err); msg != "Failed to load dashboard data" {
		t.Errorf("unexpected message %q", msg)
	}
	if dash.Stats != (domain.Stats{}) {
		t.Errorf("expected empty stats on failure, got %+v", dash.Stats)
	}
}

func TestExport(t *testing.T) {
	f := newFixture()
	sess := f.login(t, mocks.AdminIdentity())
	f.api.Packages = mocks.Packages(230)
	packages := services.NewPackageService(f.api, f.publisher)
	svc := services.NewExportService(f.api, packages)

	var buf bytes.Buffer
	result, err := svc.Write(context.Background(), sess, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rows != 230 || result.Truncated {
		t.Errorf("expected 230 exported packages without truncation, got %+v", result)
	}
	if f.api.ListPackagesCount() != 3 {
		t.Errorf("expected 3 page requests, got %d", f.api.ListPackagesCount())
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Packages")
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	if len(rows) != 231 {
		t.Errorf("expected header plus 230 rows, got %d", len(rows))
	}
	if rows[0][0] != "Tracking Number" || rows[1][0] != "JNE-TEST-001" {
		t.Errorf("unexpected first rows %v %v", rows[0], rows[1])
	}
	if rows[1][7] != "Stored" {
		t.Errorf("expected status label, got %q", rows[1][7])
	}
}

func TestExport_TruncatedAtPageBound(t *testing.T) {
	tests := []struct {
		name      string
		packages  int
		maxPages  int
		rows      int
		requests  int
		truncated bool
	}{
		{name: "fits exactly", packages: 200, maxPages: 2, rows: 200, requests: 2},
		{name: "one page over", packages: 230, maxPages: 2, rows: 200, requests: 2, truncated: true},
		{name: "empty filter", packages: 0, maxPages: 2, rows: 0, requests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			sess := f.login(t, mocks.AdminIdentity())
			f.api.Packages = mocks.Packages(tt.packages)
			svc := services.NewExportService(f.api, services.NewPackageService(f.api, f.publisher))
			svc.SetMaxPages(tt.maxPages)

			var buf bytes.Buffer
			result, err := svc.Write(context.Background(), sess, &buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Rows != tt.rows || result.Truncated != tt.truncated {
				t.Errorf("expected %d rows truncated=%v, got %+v", tt.rows, tt.truncated, result)
			}
			if f.api.ListPackagesCount() != tt.requests {
				t.Errorf("expected %d page requests, got %d", tt.requests, f.api.ListPackagesCount())
			}
		})
	}
}

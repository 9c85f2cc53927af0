package services_test

import (
	"testing"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
	"github.com/isavralabel/pickpoint-console/test/mocks"
)

func TestDecide(t *testing.T) {
	admin := mocks.AdminIdentity()
	staff := mocks.StaffIdentity(3)

	tests := []struct {
		name     string
		state    services.SessionState
		path     string
		expected services.Decision
	}{
		{
			name:     "loading shows placeholder on protected route",
			state:    services.SessionState{Loading: true},
			path:     "/packages",
			expected: services.Decision{Outcome: services.Placeholder},
		},
		{
			name:     "loading shows placeholder on login",
			state:    services.SessionState{Loading: true, Identity: &admin},
			path:     "/login",
			expected: services.Decision{Outcome: services.Placeholder},
		},
		{
			name:     "anonymous visitor is sent to login",
			state:    services.SessionState{},
			path:     "/dashboard",
			expected: services.Decision{Outcome: services.Redirect, Location: "/login"},
		},
		{
			name:     "anonymous visitor on unknown route is sent to login",
			state:    services.SessionState{},
			path:     "/nowhere",
			expected: services.Decision{Outcome: services.Redirect, Location: "/login"},
		},
		{
			name:     "staff cannot open staff management",
			state:    services.SessionState{Identity: &staff},
			path:     "/staff",
			expected: services.Decision{Outcome: services.Redirect, Location: "/dashboard"},
		},
		{
			name:     "staff cannot open location edit",
			state:    services.SessionState{Identity: &staff},
			path:     "/locations/4",
			expected: services.Decision{Outcome: services.Redirect, Location: "/dashboard"},
		},
		{
			name:     "staff may open packages",
			state:    services.SessionState{Identity: &staff},
			path:     "/packages/9/pickup",
			expected: services.Decision{Outcome: services.Render},
		},
		{
			name:     "admin may open pricing",
			state:    services.SessionState{Identity: &admin},
			path:     "/prices",
			expected: services.Decision{Outcome: services.Render},
		},
		{
			name:     "authenticated user on login goes to dashboard",
			state:    services.SessionState{Identity: &admin},
			path:     "/login",
			expected: services.Decision{Outcome: services.Redirect, Location: "/dashboard"},
		},
		{
			name:     "anonymous visitor may open login",
			state:    services.SessionState{},
			path:     "/login",
			expected: services.Decision{Outcome: services.Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.Decide(tt.state, domain.RouteFor(tt.path))
			if got != tt.expected {
				t.Errorf("expected %s %q, got %s %q", tt.expected.Outcome, tt.expected.Location, got.Outcome, got.Location)
			}
		})
	}
}

func TestMenu(t *testing.T) {
	names := func(items []services.MenuItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Name
		}
		return out
	}

	tests := []struct {
		name     string
		role     domain.Role
		expected []string
	}{
		{
			name:     "staff sees shared entries only",
			role:     domain.RoleStaff,
			expected: []string{"Dashboard", "Packages", "Recipients"},
		},
		{
			name: "admin sees everything in table order",
			role: domain.RoleAdmin,
			expected: []string{
				"Dashboard", "Packages", "Recipients", "Staff Management",
				"Locations", "Pricing", "Notification Settings",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(services.Menu(tt.role, "/dashboard"))
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestMenu_MatchesGuard(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleStaff} {
		identity := domain.Identity{Username: "u", Role: role, LocationID: 1}
		visible := make(map[string]bool)
		for _, item := range services.Menu(role, "/") {
			visible[item.Path] = true
		}
		for _, r := range domain.Routes {
			if !r.InMenu {
				continue
			}
			d := services.Decide(services.SessionState{Identity: &identity}, r)
			if allowed := d.Outcome == services.Render; allowed != visible[r.Path] {
				t.Errorf("%s %s: menu visible=%v but guard allows=%v", role, r.Path, visible[r.Path], allowed)
			}
		}
	}
}

func TestMenu_ActiveEntry(t *testing.T) {
	var active []string
	for _, item := range services.Menu(domain.RoleAdmin, "/packages/12/pickup") {
		if item.Active {
			active = append(active, item.Name)
		}
	}
	if len(active) != 1 || active[0] != "Packages" {
		t.Errorf("expected only Packages active, got %v", active)
	}
}

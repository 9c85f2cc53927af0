package services

import "github.com/isavralabel/pickpoint-console/internal/core/domain"

type Outcome int

const (
	Render Outcome = iota
	Placeholder
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide is the route guard. Rules are evaluated in order and the first
// match wins.
func Decide(state SessionState, route domain.Route) Decision {
	if state.Loading {
		return Decision{Outcome: Placeholder}
	}
	if route.Access == domain.AccessProtected && state.Identity == nil {
		return Decision{Outcome: Redirect, Location: domain.LoginPath}
	}
	if route.Access == domain.AccessProtected && !route.Permits(state.Identity.Role) {
		return Decision{Outcome: Redirect, Location: domain.DashboardPath}
	}
	if route.Access == domain.AccessPublicOnly && state.Identity != nil {
		return Decision{Outcome: Redirect, Location: domain.DashboardPath}
	}
	return Decision{Outcome: Render}
}

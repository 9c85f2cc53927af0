package middleware

import (
	"log"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

// Guard applies the route guard to every request behind it. placeholder is
// served while the session's initial auth check is still running.
func Guard(placeholder http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFrom(r.Context())
			if !ok {
				log.Printf("Guard: no session in context for %s", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			route := domain.RouteFor(r.URL.Path)
			state := sess.State()
			decision := services.Decide(state, route)

			switch decision.Outcome {
			case services.Placeholder:
				placeholder.ServeHTTP(w, r)
			case services.Redirect:
				if state.Identity != nil && decision.Location == domain.DashboardPath && route.Access == domain.AccessProtected {
					log.Printf("Role mismatch: %s requires one of %v, got %s", route.Path, route.Roles, state.Identity.Role)
				}
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/adapters/middleware"
	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

const tooManyAttemptsMessage = "Too many login attempts. Please try again later."

type loginView struct {
	Username string
}

func (c *Console) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, domain.DashboardPath, http.StatusSeeOther)
}

// Loading is shown while the initial auth check of the session is still
// running. The page reloads itself.
func (c *Console) Loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	w.Header().Set("Cache-Control", "no-store")
	c.render(w, r, http.StatusOK, "loading.html", nil)
}

func (c *Console) LoginPage(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, "login.html", loginView{})
}

func (c *Console) Login(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)
	username := r.PostFormValue("username")
	if !c.limiter.Allow(ip) {
		log.Printf("Login blocked for %s: too many failed attempts", ip)
		c.render(w, r, http.StatusTooManyRequests, "login.html", loginView{Username: username}, failure(tooManyAttemptsMessage))
		return
	}

	previous := c.session(r)
	sess, err := c.svc.Sessions.Login(r.Context(), previous.ID(), username, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.limiter.RecordFailure(ip)
		}
		c.render(w, r, statusFor(err), "login.html", loginView{Username: username}, failure(services.Message(err)))
		return
	}
	c.limiter.Reset(ip)

	if err := c.cookies.Issue(w, sess.ID()); err != nil {
		log.Printf("Failed to issue session cookie: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	c.redirect(w, r, domain.DashboardPath, success("Login successful"))
}

func (c *Console) Logout(w http.ResponseWriter, r *http.Request) {
	c.svc.Sessions.Logout(r.Context(), c.session(r).ID())
	c.cookies.Clear(w)
	http.Redirect(w, r, domain.LoginPath, http.StatusSeeOther)
}

package handler

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/isavralabel/pickpoint-console/internal/adapters/middleware"
	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

//go:embed templates/*.html assets/*
var templatesFS embed.FS

const (
	flashCookie  = "pickpoint_flash"
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

// Services are the console operations the handlers drive.
type Services struct {
	Sessions   *services.SessionService
	Dashboard  *services.DashboardService
	Packages   *services.PackageService
	Export     *services.ExportService
	Recipients *services.RecipientService
	Locations  *services.LocationService
	Staff      *services.StaffService
	Templates  *services.TemplateService
}

type Console struct {
	svc        Services
	cookies    *middleware.SessionMiddleware
	flashes    sessions.Store
	limiter    *middleware.RateLimiter
	uploadsURL string
	pages      map[string]*template.Template
}

func NewConsole(svc Services, cookies *middleware.SessionMiddleware, flashes sessions.Store, limiter *middleware.RateLimiter, uploadsURL string) *Console {
	c := &Console{
		svc:        svc,
		cookies:    cookies,
		flashes:    flashes,
		limiter:    limiter,
		uploadsURL: strings.TrimRight(uploadsURL, "/"),
		pages:      make(map[string]*template.Template),
	}
	funcs := template.FuncMap{
		"rupiah": services.FormatRupiah,
		"comma":  func(n int) string { return humanize.Comma(int64(n)) },
		"date":   formatTime,
		"datePtr": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return formatTime(*t)
		},
		"dateValue": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(domain.DateLayout)
		},
		"day":   func(t time.Time) string { return t.Format(domain.DateLayout) },
		"asset": c.asset,
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
	}
	pages := []string{
		"login.html", "loading.html", "dashboard.html", "packages.html",
		"package_form.html", "package_detail.html", "pickup.html",
		"recipients.html", "staff.html", "locations.html", "prices.html",
		"notifications.html",
	}
	for _, name := range pages {
		c.pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
	}
	return c
}

// NewFlashStore returns the cookie store for one-shot notices shown after a
// redirect.
func NewFlashStore(secret []byte, secure bool) *sessions.CookieStore {
	authKey := sha256.Sum256(append(append([]byte{}, secret...), "auth"...))
	encKey := sha256.Sum256(append(append([]byte{}, secret...), "encryption"...))
	store := sessions.NewCookieStore(authKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Handler serves every console page behind the session and guard
// middleware.
func (c *Console) Handler() http.Handler {
	mux := http.NewServeMux()
	c.Routes(mux)
	return middleware.Chain(mux, c.cookies.Load, middleware.Guard(http.HandlerFunc(c.Loading)))
}

func (c *Console) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.Root)
	mux.HandleFunc("GET /login", c.LoginPage)
	mux.HandleFunc("POST /login", c.Login)
	mux.HandleFunc("POST /logout", c.Logout)

	mux.HandleFunc("GET /dashboard", c.Dashboard)

	mux.HandleFunc("GET /packages", c.Packages)
	mux.HandleFunc("POST /packages", c.CreatePackage)
	mux.HandleFunc("GET /packages/new", c.NewPackage)
	mux.HandleFunc("GET /packages/export", c.ExportPackages)
	mux.HandleFunc("POST /packages/scan", c.ScanPackage)
	mux.HandleFunc("GET /packages/{id}", c.PackageDetail)
	mux.HandleFunc("GET /packages/{id}/pickup", c.PickupPage)
	mux.HandleFunc("POST /packages/{id}/pickup", c.Pickup)
	mux.HandleFunc("POST /packages/{id}/notify", c.NotifyPackage)

	mux.HandleFunc("GET /recipients", c.Recipients)
	mux.HandleFunc("POST /recipients", c.CreateRecipient)
	mux.HandleFunc("POST /recipients/{id}", c.UpdateRecipient)
	mux.HandleFunc("POST /recipients/{id}/delete", c.DeleteRecipient)

	mux.HandleFunc("GET /staff", c.Staff)
	mux.HandleFunc("POST /staff", c.CreateStaff)
	mux.HandleFunc("POST /staff/{id}", c.UpdateStaff)
	mux.HandleFunc("POST /staff/{id}/delete", c.DeleteStaff)

	mux.HandleFunc("GET /locations", c.Locations)
	mux.HandleFunc("POST /locations", c.CreateLocation)
	mux.HandleFunc("POST /locations/{id}", c.UpdateLocation)
	mux.HandleFunc("POST /locations/{id}/delete", c.DeleteLocation)

	mux.HandleFunc("GET /prices", c.Prices)
	mux.HandleFunc("POST /prices", c.UpdatePrices)

	mux.HandleFunc("GET /notification-settings", c.NotificationSettings)
	mux.HandleFunc("POST /notification-settings", c.SaveTemplate)
	mux.HandleFunc("POST /notification-settings/test", c.SendTestMessage)
}

// Assets serves the stylesheet and page scripts. They are public so the
// login page can use them.
func (c *Console) Assets() http.Handler {
	sub, err := fs.Sub(templatesFS, "assets")
	if err != nil {
		panic("assets missing from embedded files: " + err.Error())
	}
	return http.StripPrefix("/assets/", http.FileServerFS(sub))
}

type notice struct {
	Kind    string
	Message string
}

func success(message string) notice {
	return notice{Kind: flashSuccess, Message: message}
}

func failure(message string) notice {
	return notice{Kind: flashError, Message: message}
}

func warning(message string) notice {
	return notice{Kind: flashWarning, Message: message}
}

type pageData struct {
	Title     string
	Identity  *domain.Identity
	Menu      []services.MenuItem
	Notices   []notice
	CSRFField template.HTML
	Content   any
}

// render writes page name inside the layout. Pending flash notices are
// shown ahead of the inline ones.
func (c *Console) render(w http.ResponseWriter, r *http.Request, status int, name string, content any, inline ...notice) {
	tmpl, ok := c.pages[name]
	if !ok {
		log.Printf("Unknown page template %s", name)
		http.Error(w, "template render failed", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:     domain.RouteFor(r.URL.Path).Name,
		Notices:   append(c.popNotices(w, r), inline...),
		CSRFField: csrf.TemplateField(r),
		Content:   content,
	}
	if sess, ok := middleware.SessionFrom(r.Context()); ok {
		if identity, ok := sess.Identity(); ok {
			data.Identity = &identity
			data.Menu = services.Menu(identity.Role, r.URL.Path)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("%s template render failed: %v", name, err)
		http.Error(w, "template render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write %s: %v", name, err)
	}
}

func (c *Console) flash(w http.ResponseWriter, r *http.Request, n notice) {
	notes, err := c.flashes.Get(r, flashCookie)
	if err != nil {
		log.Printf("Flash cookie unreadable, replacing it: %v", err)
	}
	notes.AddFlash(n.Message, n.Kind)
	if err := notes.Save(r, w); err != nil {
		log.Printf("Failed to save flash notice: %v", err)
	}
}

func (c *Console) popNotices(w http.ResponseWriter, r *http.Request) []notice {
	notes, err := c.flashes.Get(r, flashCookie)
	if err != nil {
		return nil
	}
	var out []notice
	for _, kind := range []string{flashSuccess, flashWarning, flashError} {
		for _, v := range notes.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, notice{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := notes.Save(r, w); err != nil {
			log.Printf("Failed to clear flash notices: %v", err)
		}
	}
	return out
}

func (c *Console) redirect(w http.ResponseWriter, r *http.Request, path string, n notice) {
	c.flash(w, r, n)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// fail shows the message of err on back. A rejected credential has already
// ended the session, so the user is sent to the login page instead.
func (c *Console) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, domain.ErrUnauthorized) {
		back = domain.LoginPath
	}
	c.redirect(w, r, back, failure(services.Message(err)))
}

// session is always present behind the guard.
func (c *Console) session(r *http.Request) *services.Session {
	sess, _ := middleware.SessionFrom(r.Context())
	return sess
}

func (c *Console) identity(r *http.Request) domain.Identity {
	identity, _ := c.session(r).Identity()
	return identity
}

// asset resolves a path returned by the API (QR codes, package photos)
// against the uploads host.
func (c *Console) asset(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.uploadsURL + "/" + strings.TrimLeft(path, "/")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006 15:04")
}

// statusFor maps a failed form submission to the status of the re-rendered
// page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

package view

import (
	"log/slog"
	"net/http"

	"github.com/kantine/kantine-web/internal/components"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/shared"
)

// Pages assembles TemplateData from the request: session stores, CSRF token,
// guard claim and navigation drawer. Every page handler renders through it.
type Pages struct {
	Engine *Engine
	Stores *feedback.Stores
	CSRF   *shared.CSRFManager
	Table  *navigation.Table
	Logger *slog.Logger
}

// Page describes one render.
type Page struct {
	Status int
	Name   string
	Title  string
	Data   any
}

// Render consumes the error and feedback records and renders page.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, page Page) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := p.CSRF.EnsureToken(sess)
	if err != nil {
		p.logger().Warn("csrf token", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	errState, fb := p.Stores.Take(sess)
	app := p.syncApp(r, sess)

	data := TemplateData{
		Title:       page.Title,
		CSRFToken:   csrfToken,
		Notices:     components.Notices(errState, fb),
		App:         app,
		CurrentPath: r.URL.Path,
		Data:        page.Data,
	}
	if app.Authenticated() && p.Table != nil {
		data.Nav = p.Table.ForRole(app.Role)
	}
	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	if err := p.Engine.RenderStatus(w, status, page.Name, data); err != nil {
		p.logger().Error("render page", slog.String("template", page.Name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// syncApp mirrors the guard's claim into the persisted app store.
func (p *Pages) syncApp(r *http.Request, sess *shared.Session) feedback.AppState {
	app := p.Stores.App(sess)
	claim, ok := navigation.ClaimFromContext(r.Context())
	if !ok {
		return app
	}
	if app.Role != claim.Role || app.Username != claim.Username {
		app.SignIn(claim.Username, claim.Role)
		p.Stores.SaveApp(sess, app)
	}
	return app
}

// Redirect stores a feedback record for the next page and redirects there.
func (p *Pages) Redirect(w http.ResponseWriter, r *http.Request, location, status, title, message string) {
	p.Stores.SetFeedback(shared.SessionFromContext(r.Context()), status, feedback.TypeSnackbar, title, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// RedirectError stores an error record for the next page and redirects there.
func (p *Pages) RedirectError(w http.ResponseWriter, r *http.Request, location, message string) {
	p.Stores.SetError(shared.SessionFromContext(r.Context()), message, feedback.TypeBanner)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (p *Pages) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/view"
)

// Login attempts allowed per client IP and minute.
const loginAttemptsPerMinute = 10

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Pages
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		pages:          pages,
		sessionManager: sessions,
		validator:      shared.NewValidator(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
	})
	r.Get(navigation.LoginPath, h.showLogin)
	r.With(httprate.LimitByIP(loginAttemptsPerMinute, time.Minute)).Post(navigation.LoginPath, h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get(navigation.DeniedPath, h.showDenied)
}

type loginForm struct {
	Username string `form:"username" validate:"required,max=50"`
	Password string `form:"password" validate:"required,max=150"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, view.Page{Name: "pages/login.html", Title: "Anmelden", Data: loginPageData{}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	errs := shared.ValidationMessages(h.validator.Struct(form))
	if errs == nil {
		errs = make(map[string]string)
	}
	status := http.StatusBadRequest

	if len(errs) == 0 {
		identity, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
		switch {
		case err == nil:
			h.signIn(w, r, identity)
			return
		case errors.Is(err, ErrInvalidCredentials):
			errs["general"] = "Nutzername oder Passwort falsch"
			status = http.StatusUnauthorized
		case errors.Is(err, ErrAccountLocked):
			errs["general"] = "Account gesperrt"
			status = http.StatusLocked
		default:
			h.logger.Error("login", slog.String("username", form.Username), slog.Any("error", err))
			title, _ := backend.Describe(err)
			errs["general"] = title
			status = http.StatusBadGateway
		}
	}

	form.Password = ""
	h.pages.Render(w, r, view.Page{
		Status: status,
		Name:   "pages/login.html",
		Title:  "Anmelden",
		Data:   loginPageData{Form: form, Errors: errs},
	})
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, identity Identity) {
	backend.Relay(w, identity.Cookies)
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
	}
	app := h.pages.Stores.App(sess)
	app.SignIn(identity.Username, identity.Role)
	h.pages.Stores.SaveApp(sess, app)
	h.pages.Stores.SetFeedback(sess, feedback.StatusSuccess, feedback.TypeSnackbar, "Willkommen", "Angemeldet als "+identity.Username)
	http.Redirect(w, r, identity.Role.Landing(), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookies, err := h.service.SignOut(r.Context(), backend.CredentialsFromRequest(r))
	if err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	backend.Relay(w, cookies)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, navigation.LoginPath, http.StatusSeeOther)
}

func (h *Handler) showDenied(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, view.Page{
		Status: http.StatusForbidden,
		Name:   "pages/denied.html",
		Title:  "Zugriff verweigert",
	})
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kantine/kantine-web/internal/auth"
	"github.com/kantine/kantine-web/internal/gruppenleitung"
	"github.com/kantine/kantine-web/internal/kuechenpersonal"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/observability"
	"github.com/kantine/kantine-web/internal/platform/httpx"
	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/standortleitung"
	"github.com/kantine/kantine-web/internal/verwaltung"
	"github.com/kantine/kantine-web/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          *navigation.Guard
	Table          *navigation.Table
	Assets         http.Handler
	Metrics        *observability.Metrics

	AuthHandler            *auth.Handler
	VerwaltungHandler      *verwaltung.Handler
	GruppenleitungHandler  *gruppenleitung.Handler
	StandortleitungHandler *standortleitung.Handler
	KuechenpersonalHandler *kuechenpersonal.Handler
	JobHandler             *jobs.Handler
}

// NewRouter constructs the chi.Router with kantine defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Assets != nil {
		r.Handle("/static/*", params.Assets)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Guard.Middleware(params.Table))

		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireRole(roles.Verwaltung))
			r.Route("/verwaltung", params.VerwaltungHandler.MountRoutes)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireRole(roles.Gruppenleitung))
			r.Route("/gruppenleitung", params.GruppenleitungHandler.MountRoutes)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireRole(roles.Standortleitung))
			r.Route("/standortleitung", params.StandortleitungHandler.MountRoutes)
		})
		r.Route("/kuechenpersonal", params.KuechenpersonalHandler.MountRoutes)
	})

	return otelhttp.NewHandler(r, "kantine-web",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}))
}

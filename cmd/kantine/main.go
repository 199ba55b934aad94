package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kantine/kantine-web/cmd/kantine/cli"
	"github.com/kantine/kantine-web/internal/app"
	"github.com/kantine/kantine-web/internal/auth"
	"github.com/kantine/kantine-web/internal/backend"
	"github.com/kantine/kantine-web/internal/feedback"
	"github.com/kantine/kantine-web/internal/gruppenleitung"
	"github.com/kantine/kantine-web/internal/kuechenpersonal"
	"github.com/kantine/kantine-web/internal/navigation"
	"github.com/kantine/kantine-web/internal/observability"
	"github.com/kantine/kantine-web/internal/platform/cache"
	"github.com/kantine/kantine-web/internal/reload"
	"github.com/kantine/kantine-web/internal/roles"
	"github.com/kantine/kantine-web/internal/shared"
	"github.com/kantine/kantine-web/internal/standortleitung"
	"github.com/kantine/kantine-web/internal/verwaltung"
	"github.com/kantine/kantine-web/internal/view"
	"github.com/kantine/kantine-web/jobs"
	"github.com/kantine/kantine-web/web"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobs(ctx, logger, redisOpts, os.Args[2:]))
	}

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName: "kantine-web",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		logger.Error("setup tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", slog.Any("error", err))
		}
	}()

	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessionManager := shared.NewSessionManager(redisClient, "kantine_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	api, err := backend.NewClient(cfg.APIBaseURL,
		backend.WithTimeout(cfg.APITimeout),
		backend.WithRegisterer(metrics.Registerer()))
	if err != nil {
		logger.Error("init api client", slog.Any("error", err))
		os.Exit(1)
	}

	claims := navigation.CachedClaims{
		Source: navigation.RemoteClaims{API: api},
		Client: redisClient,
		TTL:    cfg.ClaimCacheTTL,
	}
	guard := navigation.NewGuard(claims, logger, metrics.Registerer())
	table := navigation.MustTable(navigation.DefaultRoutes()...)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("static filesystem", slog.Any("error", err))
		os.Exit(1)
	}
	assets := reload.New(cfg.AssetBuild, staticFS, logger)

	engine, err := view.NewEngine(assets.Asset)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	pages := &view.Pages{
		Engine: engine,
		Stores: feedback.NewStores(cfg.FeedbackTTL),
		CSRF:   csrfManager,
		Table:  table,
		Logger: logger,
	}

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Guard:          guard,
		Table:          table,
		Assets:         assets,
		Metrics:        metrics,

		AuthHandler:       auth.NewHandler(logger, auth.NewService(api, claims), pages, sessionManager),
		VerwaltungHandler: verwaltung.NewHandler(logger, api, pages),
		GruppenleitungHandler: gruppenleitung.NewHandler(logger, api, pages, gruppenleitung.Options{
			StopHour: cfg.OrderStopHour,
		}),
		StandortleitungHandler: standortleitung.NewHandler(logger, api, pages),
		KuechenpersonalHandler: kuechenpersonal.NewHandler(logger, api, pages, guard.RequireRole(roles.Kuechenpersonal)),
		JobHandler:             jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", api.BaseURL()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runJobs(ctx context.Context, logger *slog.Logger, redisOpts cache.Options, args []string) int {
	client := jobs.NewClient(redisOpts.AsynqOpt())
	defer client.Close()
	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer inspector.Close()

	if err := cli.NewJobsCLI(client, inspector, os.Stdout).Run(ctx, args); err != nil {
		logger.Error("jobs", slog.Any("error", err))
		return 1
	}
	return 0
}

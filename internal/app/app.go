package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"scoutlens/internal/ai"
	"scoutlens/internal/benchmark"
	"scoutlens/internal/config"
	"scoutlens/internal/dataprocessing"
	"scoutlens/internal/files"
	"scoutlens/internal/infrastructure"
	custommw "scoutlens/internal/middleware"
	"scoutlens/internal/operations"
	"scoutlens/internal/services"
	"scoutlens/internal/store"
	handlers "scoutlens/internal/transport/http"
	"scoutlens/internal/validation"
)

// Version is the application version, overridable at build time.
var Version = "dev"

// Application is the assembled service container.
type Application struct {
	Config    *config.Config
	Router    *chi.Mux
	Server    *http.Server
	Logger    *slog.Logger
	Store     *store.Store
	Queue     *operations.Queue
	Analysis  *services.AnalysisService
	Providers *infrastructure.OTelProviders

	logCloser io.Closer
}

// New builds the application from configuration and wires every
// dependency. Nothing is started yet; call Run.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logCloser, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	blobs, err := files.NewManager(cfg.Storage.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	gemini := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		Timeout:     cfg.AI.Timeout,
		MaxAttempts: cfg.AI.MaxAttempts,
	}, logger)
	aiService := ai.NewService(gemini, logger)

	telemetry, err := operations.NewTelemetry(providers.Meter)
	if err != nil {
		logger.Warn("pipeline telemetry disabled", slog.String("error", err.Error()))
	}

	orchestrator := operations.NewOrchestrator(operations.OrchestratorConfig{
		Files:      st.Files,
		Metrics:    st.Metrics,
		Insights:   st.Insights,
		Blobs:      blobs,
		AI:         aiService,
		Parser:     dataprocessing.NewParser(logger),
		Comparator: benchmark.NewComparator(),
		BatchSize:  cfg.Pipeline.BatchSize,
		Logger:     logger,
		Telemetry:  telemetry,
	})

	queue := operations.NewQueue(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize,
		st.Jobs, st.Files, orchestrator, logger)

	analysis := services.NewAnalysisService(services.AnalysisServiceConfig{
		Files:     st.Files,
		Insights:  st.Insights,
		Reports:   st.Reports,
		Subjects:  st.Subjects,
		Blobs:     blobs,
		Queue:     queue,
		ReportAI:  aiService,
		Validator: validation.NewUploadValidator(cfg.Storage.MaxUploadBytes),
		Logger:    logger,
	})

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Queue:     queue,
		Analysis:  analysis,
		Providers: providers,
		logCloser: logCloser,
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.Group(func(r chi.Router) {
		if otelMiddleware, err := custommw.NewOTelMiddleware(a.Providers); err != nil {
			a.Logger.Error("failed to create otel middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.Compress(5))
		if a.Config.Server.RateLimitRPS > 0 {
			r.Use(custommw.NewRateLimiter(
				a.Config.Server.RateLimitRPS,
				a.Config.Server.RateLimitBurst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			analysisHandler := handlers.NewAnalysisHandler(
				a.Analysis, a.Config.Storage.MaxUploadBytes, a.Logger)
			r.Mount("/", analysisHandler.Routes())
		})
	})

	healthHandler := handlers.NewHealthHandler(a.Store.DB(), Version, a.Logger)
	r.Get("/healthz", healthHandler.Health)

	if a.Providers.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Providers.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the queue and the HTTP server and blocks until SIGINT or
// SIGTERM, then shuts everything down in reverse order.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Queue.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")
		a.shutdown()
		return nil
	})
	return g.Wait()
}

func (a *Application) shutdown() {
	timeout := a.Config.Server.ShutdownTimeout
	ctx, done := context.WithTimeout(context.Background(), timeout)
	defer done()

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if err := a.Queue.Stop(timeout); err != nil {
		a.Logger.Warn("job queue did not drain", slog.String("error", err.Error()))
	}

	if err := a.Store.Close(); err != nil {
		a.Logger.Error("store close failed", slog.String("error", err.Error()))
	}
	if err := a.Providers.Shutdown(ctx); err != nil {
		a.Logger.Error("observability shutdown failed", slog.String("error", err.Error()))
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
	a.Logger.Info("shutdown complete")
}

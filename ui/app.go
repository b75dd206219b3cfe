package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"qcgen/adapters/excel"
	"qcgen/app"
	"qcgen/domain/qc"
	"qcgen/internal"
	"qcgen/internal/config"
	"qcgen/ports"
)

// App serves the QC HTTP API
type App struct {
	router    *chi.Mux
	port      string
	qc        *app.QCService
	simulator *app.Simulator
	presets   *config.Presets
	defaults  qc.Params
	lenient   bool
	exporters map[string]ports.Exporter
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port     string
	Defaults qc.Params
	Lenient  bool
}

// NewApp creates a new UI application
func NewApp(cfg Config, service *app.QCService, simulator *app.Simulator, presets *config.Presets, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:    chi.NewRouter(),
		port:      cfg.Port,
		qc:        service,
		simulator: simulator,
		presets:   presets,
		defaults:  cfg.Defaults,
		lenient:   cfg.Lenient,
		exporters: map[string]ports.Exporter{
			"csv":  excel.NewCSVExporter(),
			"xlsx": excel.NewXLSXExporter(),
		},
		logger: logger.With("HTTP"),
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/rules", a.handleRules)
		r.Get("/presets", a.handlePresets)

		// Runs
		r.Post("/runs", a.handleRun)
		r.Get("/runs/form", a.handleRunForm)
		r.Post("/evaluate", a.handleEvaluate)
		r.Post("/chart", a.handleChart)
		r.Post("/simulate", a.handleSimulate)

		// Outputs
		r.Post("/export/{format}", a.handleExport)
		r.Post("/report", a.handleReport)
	})
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	port := a.port
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	a.logger.Info("Starting qcgen server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

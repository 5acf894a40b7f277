// Package api assembles the HTTP surface of the prescription service.
//
// @title PrescreveAI API
// @version 1.0
// @description Parses !MED prescription shorthand and issues PDF or FHIR documents.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/andremillet/prescreveai/internal/api/docs"
	"github.com/andremillet/prescreveai/internal/api/handlers"
	"github.com/andremillet/prescreveai/internal/api/middleware"
	"github.com/andremillet/prescreveai/internal/events"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/internal/render"
)

// ServiceName is reported by /health and used as the tracer name.
const ServiceName = "prescreveai"

// Version is overridden at build time.
var Version = "dev"

// Options wires the router's dependencies.
type Options struct {
	Renderer  render.Renderer
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	// APIKeys are "client=key" or bare key entries. Empty disables auth.
	APIKeys    []string
	ClinicName string
}

// NewRouter builds the service router.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.NewPDFRenderer()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	prescriptionHandler := handlers.NewPrescriptionHandler(
		opts.Renderer, opts.Publisher, opts.Metrics, logger,
		handlers.WithClinic(opts.ClinicName),
	)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Tracing(ServiceName))

	r.Get("/health", healthHandler)
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := opts.Publisher.Ready(r.Context()); err != nil {
			logger.Warn("not ready", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	keys := middleware.KeysFromList(opts.APIKeys)
	protected := func(r chi.Router) {
		if len(keys) > 0 {
			r.Use(middleware.APIKeyAuth(keys))
		}
	}

	r.Group(func(r chi.Router) {
		protected(r)
		r.Post("/prescribe", prescriptionHandler.Prescribe)
	})
	r.Route("/api/v1", func(r chi.Router) {
		protected(r)
		r.Mount("/prescriptions", prescriptionHandler.Routes())
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":%q,"version":%q}`, ServiceName, Version)
}

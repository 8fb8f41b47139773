// Package rest wires the read-only HTTP API over a live itinerary.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tripgraph/domain/core/aggregates"
	"tripgraph/infrastructure/observability"
	"tripgraph/interfaces/http/rest/handlers"
	"tripgraph/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	store   *aggregates.Itinerary
	logger  *zap.Logger
	metrics *observability.Collector
	ws      http.Handler
}

// NewRouter creates a new router instance. The ws handler serves the
// relay WebSocket endpoint; metrics may be nil.
func NewRouter(store *aggregates.Itinerary, ws http.Handler, logger *zap.Logger, metrics *observability.Collector) *Router {
	return &Router{
		store:   store,
		logger:  logger,
		metrics: metrics,
		ws:      ws,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(middleware.CORS())

	router.Get("/health", rt.healthCheck)

	// Relay endpoint; clients keep this connection for the session
	router.Handle("/ws", rt.ws)

	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		h := handlers.NewItineraryHandler(rt.store, rt.logger)
		r.Get("/itinerary", h.GetItinerary)
		r.Get("/entities/{entityID}", h.GetEntity)
		r.Get("/entities/{entityID}/cost", h.GetSubtreeCost)
		r.Get("/schedule/{date}", h.GetSchedule)
		r.Get("/unscheduled", h.GetUnscheduled)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

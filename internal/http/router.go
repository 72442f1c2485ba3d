package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/course-portfolio-api/internal/observability"
)

// NewRouter wires the public routes. Only /api is rate limited, deadline-bound and
// counted toward health; /health and /metrics stay reachable under load.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(limiter))
	api.Use(TrafficMiddleware)
	api.Use(TimeoutMiddleware(requestTimeout))
	api.HandleFunc("/capitals", h.GetCapitals).Methods(http.MethodGet)
	api.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	api.HandleFunc("/news", h.GetNews).Methods(http.MethodGet)
	api.HandleFunc("/sports", h.GetSports).Methods(http.MethodGet)
	return router
}

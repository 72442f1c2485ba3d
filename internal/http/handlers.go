package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/course-portfolio-api/internal/lifecycle"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
	"github.com/kjstillabower/course-portfolio-api/internal/service"
	"github.com/kjstillabower/course-portfolio-api/internal/traffic"
	"github.com/kjstillabower/course-portfolio-api/internal/validation"
)

const (
	msgWeatherFailed = "Failed to fetch weather data"
	msgNewsFailed    = "Failed to fetch news"
	msgSportsFailed  = "Failed to fetch sports data"
	msgCapitalsFail  = "Failed to load capitals"
)

// WeatherProvider returns current conditions for validated coordinates.
type WeatherProvider interface {
	GetWeather(ctx context.Context, lat, lon string) (models.WeatherReading, error)
}

// NewsProvider returns the current top stories.
type NewsProvider interface {
	GetTopStories(ctx context.Context) ([]models.NewsArticle, error)
}

// ScoresProvider returns one row per tracked team; it does not fail.
type ScoresProvider interface {
	GetScores(ctx context.Context) []models.TeamGame
}

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int // 0 when rate limiter disabled
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// UpstreamStates, when set, reports circuit breaker state per provider.
	UpstreamStates func() map[string]string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather          WeatherProvider
	news             NewsProvider
	sports           ScoresProvider
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	weather WeatherProvider,
	news NewsProvider,
	sports ScoresProvider,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		weather:      weather,
		news:         news,
		sports:       sports,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetCapitals handles GET /api/capitals.
func (h *Handler) GetCapitals(w http.ResponseWriter, r *http.Request) {
	defer recoverAs(w, r, msgCapitalsFail)
	writeJSON(w, http.StatusOK, service.Capitals())
}

// GetWeather handles GET /api/weather?lat=&lon=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	defer recoverAs(w, r, msgWeatherFailed)

	q := r.URL.Query()
	lat, lon, err := validation.ValidateCoordinates(q.Get("lat"), q.Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading, err := h.weather.GetWeather(r.Context(), lat, lon)
	if err != nil {
		writeUpstreamError(w, r, msgWeatherFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// GetNews handles GET /api/news.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	defer recoverAs(w, r, msgNewsFailed)

	articles, err := h.news.GetTopStories(r.Context())
	if err != nil {
		writeUpstreamError(w, r, msgNewsFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// GetSports handles GET /api/sports. Per-team failures are already folded into
// placeholder rows, so only a panic produces a 500 here.
func (h *Handler) GetSports(w http.ResponseWriter, r *http.Request) {
	defer recoverAs(w, r, msgSportsFailed)
	writeJSON(w, http.StatusOK, h.sports.GetScores(r.Context()))
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{}
	if h.healthConfig != nil && h.healthConfig.UpstreamStates != nil {
		for provider, state := range h.healthConfig.UpstreamStates() {
			checks[provider] = state
		}
	}
	now := time.Now()
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":        result.status,
		"service":       "course-portfolio-api",
		"version":       "dev",
		"checks":        checks,
		"uptimeSeconds": int64(lifecycle.Uptime(now).Seconds()),
		"timestamp":     now.UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	cfg := h.healthConfig
	if cfg == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	// Overloaded: traffic in the window exceeds the configured share of rate-limit capacity.
	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 && cfg.OverloadThresholdPct > 0 {
		threshold := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(cfg.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errCount, total := traffic.ErrorRate(cfg.DegradedWindow)
		if total > 0 && float64(errCount)*100/float64(total) >= float64(cfg.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the API's error envelope. Details is omitted for caller errors.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeUpstreamError writes 500 with the failure's message as details and logs it at ERROR.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, message string, err error) {
	observability.LoggerFromContext(r.Context()).Error(message,
		zap.String("route", getRoute(r)),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: message, Details: err.Error()})
}

// recoverAs turns a panic in a route handler into a 500 with message. Must be deferred.
func recoverAs(w http.ResponseWriter, r *http.Request, message string) {
	p := recover()
	if p == nil {
		return
	}
	observability.LoggerFromContext(r.Context()).Error("handler panic",
		zap.String("route", getRoute(r)),
		zap.Any("panic", p),
		zap.Stack("stack"))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: message, Details: fmt.Sprint(p)})
}

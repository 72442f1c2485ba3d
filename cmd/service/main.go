package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/course-portfolio-api/internal/circuitbreaker"
	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/config"
	httphandler "github.com/kjstillabower/course-portfolio-api/internal/http"
	"github.com/kjstillabower/course-portfolio-api/internal/lifecycle"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
	"github.com/kjstillabower/course-portfolio-api/internal/service"
)

func main() {
	// .env may set LOG_LEVEL, so it is read before the logger is built.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	teams := service.TrackedTeams()
	fetcher := client.NewHTTPFetcher(cfg.UpstreamTimeout)
	if cfg.CircuitBreakerEnabled {
		keys := service.BreakerKeys(teams)
		for _, key := range keys {
			fetcher.SetCircuitBreaker(key, circuitbreaker.New(circuitbreaker.Config{
				FailureThreshold: cfg.CircuitBreakerFailureThreshold,
				SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
				OpenTimeout:      cfg.CircuitBreakerTimeout,
				OnStateChange: func(from, to circuitbreaker.State) {
					observability.RecordCircuitBreakerTransition(key, from.String(), to.String(), int(to))
					logger.Warn("circuit breaker transition",
						zap.String("breaker", key),
						zap.String("from", from.String()),
						zap.String("to", to.String()))
				},
			}))
			observability.CircuitBreakerState.WithLabelValues(key).Set(0)
		}
		logger.Info("circuit breakers enabled",
			zap.Strings("breakers", keys),
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	weatherService := service.NewWeatherService(
		client.NewOpenMeteoClient(fetcher, cfg.OpenMeteoURL),
		client.NewNominatimClient(fetcher, cfg.NominatimURL, cfg.NominatimUserAgent),
	)
	newsService := service.NewNewsService(client.NewHackerNewsClient(fetcher, cfg.HackerNewsURL), cfg.NewsLimit)
	sportsService := service.NewSportsService(
		client.NewESPNClient(fetcher, cfg.ESPNURL),
		teams,
		cfg.SportsTimezone,
		cfg.SportsWindowDays,
		clockwork.NewRealClock(),
	)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
		UpstreamStates:       fetcher.BreakerStates,
	}
	handler := httphandler.NewHandler(weatherService, newsService, sportsService, healthConfig, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	observability.RegisterTrafficGauges(cfg.OverloadWindow)

	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           httphandler.CORSMiddleware(cfg.CORSAllowedOrigins)(router),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	lifecycle.MarkStarted(time.Now())
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Strings("cors_origins", cfg.CORSAllowedOrigins),
			zap.String("sports_timezone", cfg.SportsTimezone.String()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	logger.Info("shutdown complete")
	if err := observability.FlushLogs(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "flush logs: %v\n", err)
	}
}

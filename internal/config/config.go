package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string
	LogLevel   string

	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration

	OpenMeteoURL       string
	NominatimURL       string
	HackerNewsURL      string
	ESPNURL            string
	NominatimUserAgent string

	NewsLimit int

	SportsTimezone   *time.Location
	SportsWindowDays int

	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int

	CORSAllowedOrigins []string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Upstream struct {
		Timeout    string `yaml:"timeout"`
		UserAgent  string `yaml:"user_agent"`
		OpenMeteo  string `yaml:"open_meteo_url"`
		Nominatim  string `yaml:"nominatim_url"`
		HackerNews string `yaml:"hacker_news_url"`
		ESPN       string `yaml:"espn_url"`
	} `yaml:"upstream"`

	News struct {
		Limit int `yaml:"limit"`
	} `yaml:"news"`

	Sports struct {
		Timezone   string `yaml:"timezone"`
		WindowDays int    `yaml:"window_days"`
	} `yaml:"sports"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
		CircuitBreaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

const (
	defaultPort           = "5000"
	defaultUserAgent      = "course-portfolio-api/1.0"
	defaultSportsTZ       = "America/New_York"
	defaultWindowDays     = 7
	defaultNewsLimit      = 12
	defaultRateLimitRPS   = 20
	defaultRateLimitBurst = 40
)

// LoadDotEnv loads .env from the working directory if one exists. Variables
// already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), then applies
// env overrides. A missing file is not an error; every field has a default.
// Call from project root.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")

	var fc fileConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, defaultPort)
	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)
	cfg.UpstreamTimeout = parseDuration(fc.Upstream.Timeout, 8*time.Second)

	cfg.OpenMeteoURL = firstNonEmpty(fc.Upstream.OpenMeteo, client.DefaultOpenMeteoURL)
	cfg.NominatimURL = firstNonEmpty(fc.Upstream.Nominatim, client.DefaultNominatimURL)
	cfg.HackerNewsURL = firstNonEmpty(fc.Upstream.HackerNews, client.DefaultHackerNewsURL)
	cfg.ESPNURL = firstNonEmpty(fc.Upstream.ESPN, client.DefaultESPNURL)
	cfg.NominatimUserAgent = firstNonEmpty(os.Getenv("NOMINATIM_USER_AGENT"), fc.Upstream.UserAgent, defaultUserAgent)

	cfg.NewsLimit = positiveOr(fc.News.Limit, defaultNewsLimit)

	tz := firstNonEmpty(fc.Sports.Timezone, defaultSportsTZ)
	cfg.SportsTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("sports.timezone %q: %w", tz, err)
	}
	cfg.SportsWindowDays = positiveOr(fc.Sports.WindowDays, defaultWindowDays)

	cfg.RateLimitRPS = positiveOr(fc.Reliability.RateLimitRPS, defaultRateLimitRPS)
	cfg.RateLimitBurst = positiveOr(fc.Reliability.RateLimitBurst, defaultRateLimitBurst)

	cb := fc.Reliability.CircuitBreaker
	cfg.CircuitBreakerEnabled = true
	if cb.Enabled != nil {
		cfg.CircuitBreakerEnabled = *cb.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = positiveOr(cb.FailureThreshold, 5)
	cfg.CircuitBreakerSuccessThreshold = positiveOr(cb.SuccessThreshold, 2)
	cfg.CircuitBreakerTimeout = parseDuration(cb.Timeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 15*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = positiveOr(fc.Lifecycle.OverloadThresholdPct, 80)
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = positiveOr(fc.Lifecycle.DegradedErrorPct, 25)

	cfg.CORSAllowedOrigins = fc.CORS.AllowedOrigins
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func positiveOr(v, defaultVal int) int {
	if v <= 0 {
		return defaultVal
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validate performs post-load checks. An upstream call must be able to finish
// inside the request deadline, so RequestTimeout is raised when it is not longer
// than UpstreamTimeout.
func validate(cfg *Config) error {
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		cfg.RequestTimeout = cfg.UpstreamTimeout + time.Second
	}
	if cfg.OverloadThresholdPct > 100 {
		return fmt.Errorf("lifecycle.overload_threshold_pct must be at most 100, got %d", cfg.OverloadThresholdPct)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("lifecycle.degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	if cfg.RateLimitBurst < cfg.RateLimitRPS {
		return fmt.Errorf("reliability.rate_limit_burst (%d) must be >= rate_limit_rps (%d)", cfg.RateLimitBurst, cfg.RateLimitRPS)
	}
	return nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kjstillabower/course-portfolio-api/internal/circuitbreaker"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
)

// Provider labels used for metrics and logs.
const (
	ProviderOpenMeteo  = "open_meteo"
	ProviderNominatim  = "nominatim"
	ProviderHackerNews = "hacker_news"
	ProviderESPN       = "espn"
)

var (
	// ErrUpstreamUnavailable covers transport errors, timeouts, open breakers and non-2xx statuses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamMalformed means the upstream answered 2xx with a body that is not the expected JSON.
	ErrUpstreamMalformed = errors.New("upstream malformed")
)

// Fetcher performs one GET against an upstream provider and decodes the JSON body into out.
// target is a provider label, or a BreakerKey when the provider has more than one failure domain.
type Fetcher interface {
	GetJSON(ctx context.Context, target, url string, headers http.Header, out any) error
}

// BreakerKey scopes a provider to one failure domain, such as a single ESPN league.
// Calls with different keys never share a circuit breaker; metrics still carry the bare provider.
func BreakerKey(provider, scope string) string {
	return provider + "/" + scope
}

// providerOf strips the scope from a BreakerKey.
func providerOf(target string) string {
	provider, _, _ := strings.Cut(target, "/")
	return provider
}

// HTTPFetcher is the Fetcher used in production. It never retries and never caches.
type HTTPFetcher struct {
	client   *http.Client
	timeout  time.Duration
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// NewHTTPFetcher returns a fetcher whose every call is bounded by timeout.
// The underlying http.Client is shared so connections are pooled across requests.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// SetCircuitBreaker guards calls made with target (a provider or BreakerKey) with cb.
// Targets without a breaker are called directly. Call before serving traffic.
func (f *HTTPFetcher) SetCircuitBreaker(target string, cb *circuitbreaker.CircuitBreaker) {
	f.breakers[target] = cb
}

// BreakerStates reports each guarded target's circuit state (closed, open or half_open).
func (f *HTTPFetcher) BreakerStates() map[string]string {
	states := make(map[string]string, len(f.breakers))
	for target, cb := range f.breakers {
		states[target] = cb.State().String()
	}
	return states
}

// GetJSON fetches url and decodes it into out. Errors wrap ErrUpstreamUnavailable or ErrUpstreamMalformed.
func (f *HTTPFetcher) GetJSON(ctx context.Context, target, url string, headers http.Header, out any) error {
	provider := providerOf(target)
	var err error
	if cb := f.breakers[target]; cb != nil {
		err = cb.CallContext(ctx, func() error { return f.do(ctx, provider, target, url, headers, out) })
		if errors.Is(err, circuitbreaker.ErrOpen) {
			err = fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, target, err)
		}
	} else {
		err = f.do(ctx, provider, target, url, headers, out)
	}
	if err != nil {
		observability.UpstreamErrorsTotal.WithLabelValues(provider, string(CategorizeError(err))).Inc()
	}
	return err
}

func (f *HTTPFetcher) do(ctx context.Context, provider, target, url string, headers http.Header, out any) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %w", ErrUpstreamUnavailable, target, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		observe(provider, "error", start)
		return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, target, err)
	}
	defer resp.Body.Close()

	observe(provider, statusLabel(resp.StatusCode), start)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s: HTTP %d", ErrUpstreamUnavailable, target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %w", ErrUpstreamUnavailable, target, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: parse response: %w", ErrUpstreamMalformed, target, err)
	}
	return nil
}

func observe(provider, status string, start time.Time) {
	observability.UpstreamCallsTotal.WithLabelValues(provider, status).Inc()
	observability.UpstreamDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

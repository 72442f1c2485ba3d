//go:build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/service"
)

// IntegrationTestConfig holds configuration for tests against the live providers.
type IntegrationTestConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// GetIntegrationConfig skips the test unless INTEGRATION_LIVE is set, since the live
// providers are rate limited and outside our control.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("INTEGRATION_LIVE") == "" {
		t.Skip("INTEGRATION_LIVE not set, skipping live upstream test")
	}
	ua := os.Getenv("NOMINATIM_USER_AGENT")
	if ua == "" {
		ua = "course-portfolio-api-integration"
	}
	return IntegrationTestConfig{UserAgent: ua, Timeout: 10 * time.Second}
}

// SetupLiveServices wires the services against the public provider endpoints.
func SetupLiveServices(t *testing.T, cfg IntegrationTestConfig) *Services {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	fetcher := client.NewHTTPFetcher(cfg.Timeout)
	return &Services{
		Fetcher: fetcher,
		Weather: service.NewWeatherService(
			client.NewOpenMeteoClient(fetcher, client.DefaultOpenMeteoURL),
			client.NewNominatimClient(fetcher, client.DefaultNominatimURL, cfg.UserAgent),
		),
		News: service.NewNewsService(client.NewHackerNewsClient(fetcher, client.DefaultHackerNewsURL), service.DefaultNewsLimit),
		Sports: service.NewSportsService(
			client.NewESPNClient(fetcher, client.DefaultESPNURL),
			service.TrackedTeams(),
			ny,
			service.DefaultWindowDays,
			clockwork.NewRealClock(),
		),
	}
}

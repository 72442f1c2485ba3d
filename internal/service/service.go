// Package service turns upstream provider payloads into the portfolio's view models.
package service

import (
	"context"
	"time"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
)

// isoMillis matches JavaScript's Date.toISOString, which the SPA already parses.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func formatISO(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

// ForecastClient fetches current conditions for a coordinate pair.
type ForecastClient interface {
	Forecast(ctx context.Context, lat, lon string) (client.Forecast, error)
}

// GeocodeClient resolves a coordinate pair to an address breakdown.
type GeocodeClient interface {
	Reverse(ctx context.Context, lat, lon string) (client.Place, error)
}

// StoryClient lists top stories and fetches individual items.
type StoryClient interface {
	TopStories(ctx context.Context) ([]int64, error)
	Item(ctx context.Context, id int64) (*client.Item, error)
}

// ScoreboardClient lists scoreboard events for one league over a date range.
type ScoreboardClient interface {
	Scoreboard(ctx context.Context, sport, league, dates string) (client.Scoreboard, error)
}

// BreakerKeys lists the upstream failure domains that get a circuit breaker: the
// weather providers, the Hacker News id list, and one per ESPN league among teams.
// Hacker News items are left unguarded since a failed item only drops that story.
func BreakerKeys(teams []models.TeamConfig) []string {
	keys := []string{client.ProviderOpenMeteo, client.ProviderNominatim, client.HackerNewsTopStoriesKey}
	seen := make(map[string]bool, len(teams))
	for _, team := range teams {
		key := client.ESPNBreakerKey(team.League)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

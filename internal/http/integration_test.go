package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kjstillabower/course-portfolio-api/internal/circuitbreaker"
	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
	"github.com/kjstillabower/course-portfolio-api/internal/testhelpers"
)

var e2eNow = time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC)

// e2eRouter serves the real handlers, services and clients against fake providers.
func e2eRouter(t *testing.T, up *testhelpers.Upstreams, svcs *testhelpers.Services) http.Handler {
	t.Helper()
	resetGlobals(t)
	h := NewHandler(svcs.Weather, svcs.News, svcs.Sports, &HealthConfig{UpstreamStates: svcs.Fetcher.BreakerStates}, zap.NewNop())
	return NewRouter(h, zap.NewNop(), nil, 5*time.Second)
}

func get(t *testing.T, h http.Handler, target string, out interface{}) int {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
	}
	return w.Code
}

func TestE2E_Weather(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))

	var got models.WeatherReading
	require.Equal(t, http.StatusOK, get(t, router, "/api/weather?lat=42.36&lon=-71.06", &got))

	assert.Equal(t, models.WeatherReading{
		Temperature:              59,
		FeelsLike:                55,
		Description:              "Partly cloudy",
		Humidity:                 61,
		Precipitation:            0,
		PrecipitationProbability: 10,
		WindSpeed:                12,
		WindDirection:            270,
		WindCompass:              "W",
		CloudCover:               40,
		UVIndex:                  3.1,
		Sunrise:                  "2026-10-15T06:59",
		Sunset:                   "2026-10-15T18:07",
		City:                     "Boston",
		Icon:                     "02d",
	}, got)
	assert.Equal(t, "course-portfolio-api-test", up.NominatimUserAgent())
}

func TestE2E_WeatherGeocodeDown(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))
	up.Fail(client.ProviderNominatim, http.StatusServiceUnavailable)

	var got models.WeatherReading
	require.Equal(t, http.StatusOK, get(t, router, "/api/weather?lat=42.36&lon=-71.06", &got))
	assert.Equal(t, "Unknown location", got.City)
	assert.Equal(t, 59, got.Temperature)
}

func TestE2E_WeatherForecastDown(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))
	up.Fail(client.ProviderOpenMeteo, http.StatusInternalServerError)

	var body errorBody
	require.Equal(t, http.StatusInternalServerError, get(t, router, "/api/weather?lat=42.36&lon=-71.06", &body))
	assert.Equal(t, "Failed to fetch weather data", body.Error)
	assert.Contains(t, body.Details, "HTTP 500")
	assert.Equal(t, 0, up.Hits(client.ProviderNominatim))
}

func TestE2E_WeatherCircuitBreakerFailsFast(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	svcs := up.NewServices(e2eNow)
	svcs.Fetcher.SetCircuitBreaker(client.ProviderOpenMeteo, circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
	}))
	router := e2eRouter(t, up, svcs)
	up.Fail(client.ProviderOpenMeteo, http.StatusBadGateway)

	require.Equal(t, http.StatusInternalServerError, get(t, router, "/api/weather?lat=1&lon=2", nil))

	var body errorBody
	require.Equal(t, http.StatusInternalServerError, get(t, router, "/api/weather?lat=1&lon=2", &body))
	assert.Contains(t, body.Details, "circuit breaker open")
	assert.Equal(t, 1, up.Hits(client.ProviderOpenMeteo))

	var health map[string]interface{}
	get(t, router, "/health", &health)
	assert.Equal(t, map[string]interface{}{client.ProviderOpenMeteo: "open"}, health["checks"])
}

func TestE2E_News(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))

	var articles []models.NewsArticle
	require.Equal(t, http.StatusOK, get(t, router, "/api/news", &articles))

	var titles []string
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{
		"Story 1", "Story 2", "Story 4", "Story 6", "Story 7",
		"Story 8", "Story 9", "Story 10", "Story 11", "Story 12",
	}, titles)

	assert.Equal(t, models.NewsArticle{
		Title:       "Story 1",
		Description: "101 points by pg | 1 comments",
		URL:         "https://news.ycombinator.com/item?id=1",
		PublishedAt: "2025-10-15T03:46:41.000Z",
		Source:      models.NewsSource{Name: "Hacker News"},
	}, articles[0])
	assert.Equal(t, "https://example.com/2", articles[1].URL)
	// 1 list + 12 items; stories 13-15 are never fetched.
	assert.Equal(t, 13, up.Hits(client.ProviderHackerNews))
}

func TestE2E_NewsDown(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))
	up.Fail(client.ProviderHackerNews, http.StatusServiceUnavailable)

	var body errorBody
	require.Equal(t, http.StatusInternalServerError, get(t, router, "/api/news", &body))
	assert.Equal(t, "Failed to fetch news", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestE2E_Sports(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))

	var games []models.TeamGame
	require.Equal(t, http.StatusOK, get(t, router, "/api/sports", &games))
	require.Len(t, games, 4)

	assert.Equal(t, models.TeamGame{
		Team: "Bruins", Opponent: "Maple Leafs", TeamScore: 4, OpponentScore: 2,
		Date: "2026-10-14T23:00Z", Status: "Final", Logo: "🏒", Sport: "hockey",
	}, games[0])
	assert.Equal(t, models.TeamGame{
		Team: "Red Sox", Opponent: "No recent game",
		Date: "2026-10-15T16:00:00.000Z", Status: "No games in last 7 days", Logo: "⚾", Sport: "baseball",
	}, games[1])
	assert.Equal(t, "No recent game", games[2].Opponent)
	assert.Equal(t, models.TeamGame{
		Team: "Celtics", Opponent: "76ers", TeamScore: 121, OpponentScore: 118,
		Date: "2026-10-13T23:30Z", Status: "Final", Logo: "🏀", Sport: "basketball",
	}, games[3])
}

func TestE2E_SportsOneLeagueDown(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	router := e2eRouter(t, up, up.NewServices(e2eNow))
	up.Fail(client.ESPNBreakerKey("nhl"), http.StatusBadGateway)

	var games []models.TeamGame
	require.Equal(t, http.StatusOK, get(t, router, "/api/sports", &games))
	require.Len(t, games, 4)

	assert.Equal(t, models.TeamGame{
		Team: "Bruins", Opponent: "Data unavailable",
		Date: "2026-10-15T16:00:00.000Z", Status: "Error loading", Logo: "🏒", Sport: "hockey",
	}, games[0])
	assert.Equal(t, "76ers", games[3].Opponent)
}

// productionBreakers matches the default circuit breaker settings.
var productionBreakers = circuitbreaker.Config{FailureThreshold: 5, SuccessThreshold: 2, OpenTimeout: 30 * time.Second}

func TestE2E_SportsFailingLeagueKeepsOtherTeams(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	svcs := up.NewServices(e2eNow)
	svcs.EnableCircuitBreakers(productionBreakers)
	router := e2eRouter(t, up, svcs)
	up.Fail(client.ESPNBreakerKey("nhl"), http.StatusBadGateway)

	var games []models.TeamGame
	for i := 0; i < 8; i++ {
		games = nil
		require.Equal(t, http.StatusOK, get(t, router, "/api/sports", &games))
		require.Len(t, games, 4)
	}

	assert.Equal(t, "Data unavailable", games[0].Opponent)
	assert.Equal(t, "No recent game", games[1].Opponent)
	assert.Equal(t, "No recent game", games[2].Opponent)
	assert.Equal(t, "76ers", games[3].Opponent)
	assert.Equal(t, 121, games[3].TeamScore)

	states := svcs.Fetcher.BreakerStates()
	assert.Equal(t, "open", states["espn/nhl"])
	assert.Equal(t, "closed", states["espn/mlb"])
	assert.Equal(t, "closed", states["espn/nfl"])
	assert.Equal(t, "closed", states["espn/nba"])
	assert.Equal(t, 5, up.Hits(client.ESPNBreakerKey("nhl")), "open breaker stops calls to the failing league only")
	assert.Equal(t, 8, up.Hits(client.ESPNBreakerKey("nba")))
}

func TestE2E_NewsItemFailuresKeepTopStoriesReachable(t *testing.T) {
	up := testhelpers.NewUpstreams(t)
	svcs := up.NewServices(e2eNow)
	svcs.EnableCircuitBreakers(productionBreakers)
	router := e2eRouter(t, up, svcs)
	up.Fail(client.HackerNewsItemKey, http.StatusInternalServerError)

	var articles []models.NewsArticle
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(t, router, "/api/news", &articles))
		assert.Empty(t, articles)
	}
	assert.Equal(t, 3, up.Hits(client.HackerNewsTopStoriesKey))

	up.Fail(client.HackerNewsItemKey, 0)
	require.Equal(t, http.StatusOK, get(t, router, "/api/news", &articles))
	assert.Len(t, articles, 10)
	assert.Equal(t, "closed", svcs.Fetcher.BreakerStates()[client.HackerNewsTopStoriesKey])
}

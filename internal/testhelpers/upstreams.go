// Package testhelpers provides fake upstream providers and service wiring for
// end-to-end tests of the API.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/course-portfolio-api/internal/circuitbreaker"
	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/service"
)

// Upstreams is one httptest server impersonating Open-Meteo, Nominatim, Hacker News
// and ESPN. Each provider serves a canned Boston fixture until told to fail.
type Upstreams struct {
	Server *httptest.Server

	mu        sync.Mutex
	failures  map[string]int // provider or client.BreakerKey -> HTTP status
	userAgent string
	hits      map[string]int
}

// NewUpstreams starts the fake providers; the server is closed when t finishes.
func NewUpstreams(t *testing.T) *Upstreams {
	t.Helper()
	u := &Upstreams{failures: map[string]int{}, hits: map[string]int{}}

	r := mux.NewRouter()
	r.HandleFunc("/open-meteo/forecast", u.guard(client.ProviderOpenMeteo, serveForecast))
	r.HandleFunc("/nominatim/reverse", u.guard(client.ProviderNominatim, u.serveReverse))
	r.HandleFunc("/hn/topstories.json", u.guard(client.HackerNewsTopStoriesKey, serveTopStories))
	r.HandleFunc("/hn/item/{id:[0-9]+}.json", u.guard(client.HackerNewsItemKey, serveItem))
	r.HandleFunc("/espn/{sport}/{league}/scoreboard", u.serveScoreboard)

	u.Server = httptest.NewServer(r)
	t.Cleanup(u.Server.Close)
	return u
}

// Fail makes provider answer with status until cleared with Fail(provider, 0).
// A single failure domain can be failed by its key, e.g. client.ESPNBreakerKey("nhl")
// or client.HackerNewsItemKey.
func (u *Upstreams) Fail(provider string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if status == 0 {
		delete(u.failures, provider)
		return
	}
	u.failures[provider] = status
}

// Hits returns how many requests provider (or one of its keys) has received.
func (u *Upstreams) Hits(provider string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[provider]
}

// NominatimUserAgent returns the User-Agent of the last reverse-geocode request.
func (u *Upstreams) NominatimUserAgent() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userAgent
}

func (u *Upstreams) OpenMeteoURL() string  { return u.Server.URL + "/open-meteo/forecast" }
func (u *Upstreams) NominatimURL() string  { return u.Server.URL + "/nominatim/reverse" }
func (u *Upstreams) HackerNewsURL() string { return u.Server.URL + "/hn" }
func (u *Upstreams) ESPNURL() string       { return u.Server.URL + "/espn" }

// Services are the three aggregators wired to real clients.
type Services struct {
	Fetcher *client.HTTPFetcher
	Weather *service.WeatherService
	News    *service.NewsService
	Sports  *service.SportsService
}

// NewServices wires production clients and services against the fake providers.
// The sports clock is frozen at now.
func (u *Upstreams) NewServices(now time.Time) *Services {
	fetcher := client.NewHTTPFetcher(2 * time.Second)
	return &Services{
		Fetcher: fetcher,
		Weather: service.NewWeatherService(
			client.NewOpenMeteoClient(fetcher, u.OpenMeteoURL()),
			client.NewNominatimClient(fetcher, u.NominatimURL(), "course-portfolio-api-test"),
		),
		News: service.NewNewsService(client.NewHackerNewsClient(fetcher, u.HackerNewsURL()), service.DefaultNewsLimit),
		Sports: service.NewSportsService(
			client.NewESPNClient(fetcher, u.ESPNURL()),
			service.TrackedTeams(),
			time.UTC,
			service.DefaultWindowDays,
			clockwork.NewFakeClockAt(now),
		),
	}
}

// EnableCircuitBreakers guards the fetcher the way the service does in production:
// one breaker per failure domain of the tracked teams and fixed endpoints.
func (s *Services) EnableCircuitBreakers(cfg circuitbreaker.Config) {
	for _, key := range service.BreakerKeys(service.TrackedTeams()) {
		s.Fetcher.SetCircuitBreaker(key, circuitbreaker.New(cfg))
	}
}

func (u *Upstreams) guard(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status := u.hit(key); status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next(w, r)
	}
}

// hit records a request for key and returns the status it is failing with, if any.
// A failure set on the key wins over one set on its whole provider.
func (u *Upstreams) hit(key string) int {
	provider, _, scoped := strings.Cut(key, "/")
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hits[provider]++
	if scoped {
		u.hits[key]++
	}
	if status := u.failures[key]; status != 0 {
		return status
	}
	return u.failures[provider]
}

func writeFixture(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func serveForecast(w http.ResponseWriter, _ *http.Request) {
	writeFixture(w, `{
		"current": {
			"temperature_2m": 58.6,
			"apparent_temperature": 55.2,
			"relative_humidity_2m": 61,
			"precipitation": 0,
			"precipitation_probability": 10,
			"wind_speed_10m": 12.4,
			"wind_direction_10m": 270,
			"weather_code": 2,
			"cloud_cover": 40,
			"uv_index": 3.1
		},
		"daily": {"sunrise": ["2026-10-15T06:59"], "sunset": ["2026-10-15T18:07"]}
	}`)
}

func (u *Upstreams) serveReverse(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.userAgent = r.Header.Get("User-Agent")
	u.mu.Unlock()
	writeFixture(w, `{"address": {"city": "Boston", "county": "Suffolk County"}}`)
}

// Top stories 1..15; story 3 has no title and story 5 is deleted (null).
func serveTopStories(w http.ResponseWriter, _ *http.Request) {
	writeFixture(w, `[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15]`)
}

func serveItem(w http.ResponseWriter, r *http.Request) {
	var id int
	_, _ = fmt.Sscanf(mux.Vars(r)["id"], "%d", &id)
	switch id {
	case 3:
		writeFixture(w, `{"id":3,"type":"story","by":"ghost","score":1}`)
	case 5:
		writeFixture(w, `null`)
	default:
		item := map[string]interface{}{
			"id":          id,
			"type":        "story",
			"title":       fmt.Sprintf("Story %d", id),
			"by":          "pg",
			"score":       100 + id,
			"descendants": id,
			"time":        1760500000 + id,
		}
		if id%2 == 0 {
			item["url"] = fmt.Sprintf("https://example.com/%d", id)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(item)
	}
}

func (u *Upstreams) serveScoreboard(w http.ResponseWriter, r *http.Request) {
	league := mux.Vars(r)["league"]
	if status := u.hit(client.ESPNBreakerKey(league)); status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	switch league {
	case "nhl":
		writeFixture(w, `{"events": [{
			"date": "2026-10-14T23:00Z",
			"status": {"type": {"description": "Final"}},
			"competitions": [{"competitors": [
				{"homeAway": "home", "score": "4", "team": {"displayName": "Boston Bruins", "shortDisplayName": "Bruins"}},
				{"homeAway": "away", "score": "2", "team": {"displayName": "Toronto Maple Leafs", "shortDisplayName": "Maple Leafs"}}
			]}]
		}]}`)
	case "nba":
		writeFixture(w, `{"events": [{
			"date": "2026-10-13T23:30Z",
			"status": {"type": {"description": "Final"}},
			"competitions": [{"competitors": [
				{"homeAway": "home", "score": "118", "team": {"displayName": "Philadelphia 76ers", "shortDisplayName": "76ers"}},
				{"homeAway": "away", "score": "121", "team": {"displayName": "Boston Celtics", "shortDisplayName": "Celtics"}}
			]}]
		}]}`)
	default:
		writeFixture(w, `{"events": []}`)
	}
}

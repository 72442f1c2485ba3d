package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMeteoClient_Forecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "42.36", q.Get("latitude"))
		assert.Equal(t, "-71.06", q.Get("longitude"))
		assert.Equal(t, currentFields, q.Get("current"))
		assert.Equal(t, "sunrise,sunset", q.Get("daily"))
		assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
		assert.Equal(t, "mph", q.Get("wind_speed_unit"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "1", q.Get("forecast_days"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"current": {"temperature_2m": 71.6, "weather_code": 3, "uv_index": 4.25},
			"daily": {"sunrise": ["2026-10-15T06:59"], "sunset": ["2026-10-15T18:07"]}
		}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(NewHTTPFetcher(time.Second), srv.URL)
	f, err := c.Forecast(context.Background(), "42.36", "-71.06")
	require.NoError(t, err)
	require.NotNil(t, f.Current)
	require.NotNil(t, f.Current.Temperature)
	assert.Equal(t, 71.6, *f.Current.Temperature)
	assert.Equal(t, 3.0, *f.Current.WeatherCode)
	assert.Nil(t, f.Current.Precipitation)
	assert.Equal(t, []string{"2026-10-15T06:59"}, f.Daily.Sunrise)
}

func TestNominatimClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42.36", r.URL.Query().Get("lat"))
		assert.Equal(t, "-71.06", r.URL.Query().Get("lon"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "portfolio/1.0", r.Header.Get("User-Agent"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"address": {"town": "Brookline", "county": "Norfolk County"}}`))
	}))
	defer srv.Close()

	c := NewNominatimClient(NewHTTPFetcher(time.Second), srv.URL, "portfolio/1.0")
	p, err := c.Reverse(context.Background(), "42.36", "-71.06")
	require.NoError(t, err)
	require.NotNil(t, p.Address)
	assert.Equal(t, "Brookline", p.Address.Town)
	assert.Equal(t, "", p.Address.City)
}

func TestHackerNewsClient_TopStoriesAndItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		switch r.URL.Path {
		case "/topstories.json":
			_, _ = w.Write([]byte(`[3, 1, 2]`))
		case "/item/1.json":
			_, _ = w.Write([]byte(`{"id": 1, "title": "Hello", "by": "pg", "score": 10, "time": 1700000000}`))
		case "/item/2.json":
			_, _ = w.Write([]byte(`null`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHackerNewsClient(NewHTTPFetcher(time.Second), srv.URL+"/")

	ids, err := c.TopStories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	item, err := c.Item(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Hello", item.Title)
	assert.Equal(t, int64(1700000000), item.Time)

	item, err = c.Item(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = c.Item(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestESPNClient_Scoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hockey/nhl/scoreboard", r.URL.Path)
		assert.Equal(t, "20261008-20261015", r.URL.Query().Get("dates"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"events": [{
			"id": "401",
			"date": "2026-10-14T23:00Z",
			"status": {"type": {"description": "Final"}},
			"competitions": [{"competitors": [
				{"homeAway": "home", "score": "4", "team": {"displayName": "Boston Bruins", "shortDisplayName": "Bruins"}},
				{"homeAway": "away", "score": "2", "team": {"displayName": "Toronto Maple Leafs", "shortDisplayName": "Maple Leafs"}}
			]}]
		}]}`))
	}))
	defer srv.Close()

	c := NewESPNClient(NewHTTPFetcher(time.Second), srv.URL)
	sb, err := c.Scoreboard(context.Background(), "hockey", "nhl", "20261008-20261015")
	require.NoError(t, err)
	require.Len(t, sb.Events, 1)
	ev := sb.Events[0]
	assert.Equal(t, "Final", ev.Status.Type.Description)
	require.Len(t, ev.Competitions, 1)
	require.Len(t, ev.Competitions[0].Competitors, 2)
	assert.Equal(t, Score("4"), ev.Competitions[0].Competitors[0].Score)
	assert.Equal(t, "Maple Leafs", ev.Competitions[0].Competitors[1].Team.ShortDisplayName)
}

func TestScore_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Score
	}{
		{`"7"`, "7"},
		{`7`, "7"},
		{`null`, ""},
		{`{"value": 3, "displayValue": "3"}`, "3"},
		{`{"value": 21}`, "21"},
		{`["x"]`, ""},
		{`true`, ""},
	}
	for _, tt := range tests {
		var c struct {
			Score Score `json:"score"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"score": `+tt.in+`}`), &c), tt.in)
		assert.Equal(t, tt.want, c.Score, tt.in)
	}
}

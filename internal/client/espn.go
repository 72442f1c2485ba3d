package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const DefaultESPNURL = "https://site.api.espn.com/apis/site/v2/sports"

// Scoreboard is the subset of an ESPN scoreboard response the sports page reads.
type Scoreboard struct {
	Events []Event `json:"events"`
}

type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Competitions []Competition `json:"competitions"`
	Status       *EventStatus  `json:"status"`
}

type EventStatus struct {
	Type struct {
		Description string `json:"description"`
	} `json:"type"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
}

type Competitor struct {
	HomeAway string          `json:"homeAway"`
	Score    Score           `json:"score"`
	Team     *CompetitorTeam `json:"team"`
}

type CompetitorTeam struct {
	DisplayName      string `json:"displayName"`
	ShortDisplayName string `json:"shortDisplayName"`
}

// Score holds a competitor's score as text. The scoreboard sends it as a string,
// other ESPN endpoints send a number or an object with displayValue; any shape
// that cannot be read leaves Score empty rather than failing the whole decode.
type Score string

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err == nil {
			*s = Score(v)
		}
	case '{':
		var v struct {
			DisplayValue string   `json:"displayValue"`
			Value        *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &v); err == nil {
			if v.DisplayValue != "" {
				*s = Score(v.DisplayValue)
			} else if v.Value != nil {
				*s = Score(strconv.FormatFloat(*v.Value, 'f', -1, 64))
			}
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = Score(data)
	default:
		*s = ""
	}
	return nil
}

// ESPNClient reads league scoreboards from ESPN's public site API.
type ESPNClient struct {
	fetcher Fetcher
	baseURL string
}

// NewESPNClient returns a new ESPNClient. An empty baseURL selects DefaultESPNURL.
func NewESPNClient(fetcher Fetcher, baseURL string) *ESPNClient {
	if baseURL == "" {
		baseURL = DefaultESPNURL
	}
	return &ESPNClient{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// ESPNBreakerKey is the failure domain of one league's scoreboard.
func ESPNBreakerKey(league string) string {
	return BreakerKey(ProviderESPN, league)
}

// Scoreboard lists events for sport/league within dates, a "YYYYMMDD-YYYYMMDD" range.
// Each league is its own failure domain, keyed by ESPNBreakerKey.
func (c *ESPNClient) Scoreboard(ctx context.Context, sport, league, dates string) (Scoreboard, error) {
	u := fmt.Sprintf("%s/%s/%s/scoreboard?dates=%s",
		c.baseURL, url.PathEscape(sport), url.PathEscape(league), url.QueryEscape(dates))

	var sb Scoreboard
	if err := c.fetcher.GetJSON(ctx, ESPNBreakerKey(league), u, nil, &sb); err != nil {
		return Scoreboard{}, err
	}
	return sb, nil
}

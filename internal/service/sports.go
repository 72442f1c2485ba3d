package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/course-portfolio-api/internal/client"
	"github.com/kjstillabower/course-portfolio-api/internal/models"
	"github.com/kjstillabower/course-portfolio-api/internal/observability"
)

const (
	DefaultWindowDays = 7

	statusScheduled  = "Scheduled"
	opponentTBD      = "TBD"
	opponentNoGame   = "No recent game"
	statusNoGame     = "No games in last %d days"
	opponentNoData   = "Data unavailable"
	statusLoadFailed = "Error loading"
)

var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

// SportsService builds one scoreboard row per tracked team.
type SportsService struct {
	scores     ScoreboardClient
	teams      []models.TeamConfig
	location   *time.Location
	windowDays int
	clock      clockwork.Clock
}

// NewSportsService returns an aggregator over teams. location is the calendar the
// scoreboard provider uses for its date filter; nil means UTC.
func NewSportsService(scores ScoreboardClient, teams []models.TeamConfig, location *time.Location, windowDays int, clock clockwork.Clock) *SportsService {
	if location == nil {
		location = time.UTC
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SportsService{
		scores:     scores,
		teams:      teams,
		location:   location,
		windowDays: windowDays,
		clock:      clock,
	}
}

// teamResult is one branch of the fan-out before failures become placeholders.
type teamResult struct {
	game  *models.TeamGame
	found bool
	err   error
}

// GetScores fetches every team concurrently and always returns exactly one row per
// team, in team order. A team whose fetch fails gets a placeholder row instead of
// failing its siblings.
func (s *SportsService) GetScores(ctx context.Context) []models.TeamGame {
	logger := observability.LoggerFromContext(ctx)
	now := s.clock.Now()
	dates := DateWindow(now, s.location, s.windowDays)

	results := make([]teamResult, len(s.teams))
	var wg sync.WaitGroup
	for i, team := range s.teams {
		wg.Add(1)
		go func(i int, team models.TeamConfig) {
			defer wg.Done()
			results[i] = s.fetchTeam(ctx, team, dates, now)
		}(i, team)
	}
	wg.Wait()

	games := make([]models.TeamGame, len(s.teams))
	for i, team := range s.teams {
		r := results[i]
		switch {
		case r.err != nil:
			logger.Warn("team scoreboard unavailable",
				zap.String("team", team.Name),
				zap.String("dates", dates),
				zap.Error(r.err))
			observability.SportsTeamOutcomesTotal.WithLabelValues(team.Name, "error").Inc()
			games[i] = placeholder(team, opponentNoData, statusLoadFailed, now)
		case !r.found:
			observability.SportsTeamOutcomesTotal.WithLabelValues(team.Name, "no_recent_game").Inc()
			games[i] = placeholder(team, opponentNoGame, fmt.Sprintf(statusNoGame, s.windowDays), now)
		default:
			observability.SportsTeamOutcomesTotal.WithLabelValues(team.Name, "game").Inc()
			games[i] = *r.game
		}
	}
	return games
}

func (s *SportsService) fetchTeam(ctx context.Context, team models.TeamConfig, dates string, now time.Time) (res teamResult) {
	defer func() {
		if p := recover(); p != nil {
			res = teamResult{err: fmt.Errorf("scoreboard for %s panicked: %v", team.Name, p)}
		}
	}()

	sb, err := s.scores.Scoreboard(ctx, team.Sport, team.League, dates)
	if err != nil {
		return teamResult{err: fmt.Errorf("fetch %s/%s scoreboard: %w", team.Sport, team.League, err)}
	}

	ev, ok := latestEvent(sb.Events, team.SearchTerms)
	if !ok {
		return teamResult{}
	}
	game := gameFromEvent(ev, team, now)
	return teamResult{game: &game, found: true}
}

// DateWindow formats the trailing window ending on now's calendar day in loc,
// e.g. "20261008-20261015" for a seven-day window.
func DateWindow(now time.Time, loc *time.Location, days int) string {
	end := now.In(loc)
	start := end.AddDate(0, 0, -days)
	return start.Format("20060102") + "-" + end.Format("20060102")
}

// latestEvent returns the most recent event featuring the team. Ties keep the
// earlier event; unparsable dates sort oldest.
func latestEvent(events []client.Event, terms []string) (client.Event, bool) {
	var (
		best     client.Event
		bestTime time.Time
		found    bool
	)
	for _, ev := range events {
		if !involvesTeam(ev, terms) {
			continue
		}
		t := parseEventDate(ev.Date)
		if !found || t.After(bestTime) {
			best, bestTime, found = ev, t, true
		}
	}
	return best, found
}

func involvesTeam(ev client.Event, terms []string) bool {
	if len(ev.Competitions) == 0 {
		return false
	}
	for _, c := range ev.Competitions[0].Competitors {
		if c.Team != nil && matchesTeam(c.Team.DisplayName, terms) {
			return true
		}
	}
	return false
}

func matchesTeam(displayName string, terms []string) bool {
	name := strings.ToLower(displayName)
	if name == "" {
		return false
	}
	for _, term := range terms {
		if strings.Contains(name, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func parseEventDate(s string) time.Time {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func gameFromEvent(ev client.Event, team models.TeamConfig, now time.Time) models.TeamGame {
	var home, away *client.Competitor
	for i := range ev.Competitions[0].Competitors {
		c := &ev.Competitions[0].Competitors[i]
		switch c.HomeAway {
		case "home":
			if home == nil {
				home = c
			}
		case "away":
			if away == nil {
				away = c
			}
		}
	}

	ours, theirs := away, home
	if home != nil && home.Team != nil && matchesTeam(home.Team.DisplayName, team.SearchTerms) {
		ours, theirs = home, away
	}

	game := models.TeamGame{
		Team:          team.Name,
		Opponent:      opponentName(theirs),
		TeamScore:     competitorScore(ours),
		OpponentScore: competitorScore(theirs),
		Date:          ev.Date,
		Status:        statusScheduled,
		Logo:          team.Logo,
		Sport:         team.Sport,
	}
	if game.Date == "" {
		game.Date = formatISO(now)
	}
	if ev.Status != nil && ev.Status.Type.Description != "" {
		game.Status = ev.Status.Type.Description
	}
	return game
}

func opponentName(c *client.Competitor) string {
	if c == nil || c.Team == nil {
		return opponentTBD
	}
	if c.Team.ShortDisplayName != "" {
		return c.Team.ShortDisplayName
	}
	if c.Team.DisplayName != "" {
		return c.Team.DisplayName
	}
	return opponentTBD
}

func competitorScore(c *client.Competitor) int {
	if c == nil {
		return 0
	}
	return parseScore(string(c.Score))
}

// parseScore reads the leading integer of s ("3", "12 (OT)", "4.0"), or 0 if there is none.
func parseScore(s string) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		n = n*10 + int(s[digits]-'0')
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

func placeholder(team models.TeamConfig, opponent, status string, now time.Time) models.TeamGame {
	return models.TeamGame{
		Team:     team.Name,
		Opponent: opponent,
		Date:     formatISO(now),
		Status:   status,
		Logo:     team.Logo,
		Sport:    team.Sport,
	}
}

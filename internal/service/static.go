package service

import "github.com/kjstillabower/course-portfolio-api/internal/models"

var capitals = []models.Capital{
	{ID: 1, Capital: "Augusta", State: "Maine"},
	{ID: 2, Capital: "Concord", State: "New Hampshire"},
	{ID: 3, Capital: "Montpelier", State: "Vermont"},
	{ID: 4, Capital: "Boston", State: "Massachusetts"},
	{ID: 5, Capital: "Providence", State: "Rhode Island"},
	{ID: 6, Capital: "Hartford", State: "Connecticut"},
}

var trackedTeams = []models.TeamConfig{
	{Name: "Bruins", Sport: "hockey", League: "nhl", Logo: "🏒", SearchTerms: []string{"boston bruins", "bruins"}},
	{Name: "Red Sox", Sport: "baseball", League: "mlb", Logo: "⚾", SearchTerms: []string{"boston red sox", "red sox"}},
	{Name: "Patriots", Sport: "football", League: "nfl", Logo: "🏈", SearchTerms: []string{"new england patriots", "patriots"}},
	{Name: "Celtics", Sport: "basketball", League: "nba", Logo: "🏀", SearchTerms: []string{"boston celtics", "celtics"}},
}

// Capitals returns the six New England state capitals for the drag-and-drop game.
// Each call gets its own copy.
func Capitals() []models.Capital {
	out := make([]models.Capital, len(capitals))
	copy(out, capitals)
	return out
}

// TrackedTeams returns a copy of the scoreboard team table, in display order.
func TrackedTeams() []models.TeamConfig {
	out := make([]models.TeamConfig, len(trackedTeams))
	for i, t := range trackedTeams {
		t.SearchTerms = append([]string(nil), t.SearchTerms...)
		out[i] = t
	}
	return out
}

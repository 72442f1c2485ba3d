package models

// TeamGame is one scoreboard row. Placeholder rows use the same shape.
type TeamGame struct {
	Team          string `json:"team"`
	Opponent      string `json:"opponent"`
	TeamScore     int    `json:"teamScore"`
	OpponentScore int    `json:"opponentScore"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	Logo          string `json:"logo"`
	Sport         string `json:"sport"`
}

// TeamConfig identifies a tracked team inside scoreboard competitor records.
// SearchTerms are matched case-insensitively as substrings of the display name.
type TeamConfig struct {
	Name        string
	Sport       string
	League      string
	Logo        string
	SearchTerms []string
}

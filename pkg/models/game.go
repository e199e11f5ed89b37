package models

import "time"

// ScheduledGame is one event from the NFL scoreboard feed.
type ScheduledGame struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kickoff time.Time `json:"kickoff"`
}

// Team identifies one side of a game.
type Team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

// Spot captures the situational fields attached to one end of a play.
// YardLine is the absolute 0-100 field position reported by the feed;
// PossessionText is the human-readable spot ("NYG 35", or "50" at midfield).
type Spot struct {
	YardLine              int    `json:"yard_line"`
	YardsToEndzone        int    `json:"yards_to_endzone"`
	Down                  int    `json:"down"`
	Distance              int    `json:"distance"`
	PossessionText        string `json:"possession_text"`
	ShortDownDistanceText string `json:"short_down_distance_text"`
	TeamID                string `json:"team_id"`
}

// Play is a single play within a drive.
type Play struct {
	Text      string `json:"text"`
	TypeText  string `json:"type_text"`
	Quarter   int    `json:"quarter"`
	Clock     string `json:"clock"` // display value, "MM:SS"
	AwayScore int    `json:"away_score"`
	HomeScore int    `json:"home_score"`
	Start     Spot   `json:"start"`
	End       Spot   `json:"end"`
}

// Drive is a completed or in-progress possession.
type Drive struct {
	ID     string `json:"id"`
	Result string `json:"result"`
	Plays  []Play `json:"plays"`
}

// Game is a parsed game summary. Away is boxscore team 0, Home is team 1,
// matching the feed's ordering.
type Game struct {
	ID         string  `json:"id"`
	SeasonYear int     `json:"season_year"`
	SeasonType int     `json:"season_type"` // >2 means postseason
	Final      bool    `json:"final"`
	Away       Team    `json:"away"`
	Home       Team    `json:"home"`
	Drives     []Drive `json:"drives"`
}

// Postseason reports whether the game is a playoff game. Regular-season
// overtime periods are 10 minutes instead of 15, which changes the clock
// arithmetic.
func (g *Game) Postseason() bool {
	return g.SeasonType > 2
}

package models

import "time"

// PenaltyDetail describes a delay-of-game penalty taken immediately before a
// punt. The punt is scored at the pre-penalty spot; MovedTo* hold the actual
// post-penalty spot, and the Unadjusted* fields hold the score the punt would
// have received there.
type PenaltyDetail struct {
	MovedToTerritory           string  `json:"moved_to_territory"`
	MovedToDownDistance        string  `json:"moved_to_down_distance"`
	UnadjustedIndex            float64 `json:"unadjusted_index"`
	UnadjustedSeasonPercentile float64 `json:"unadjusted_season_percentile"`
}

// PuntEvent is the message published for every detected punt.
type PuntEvent struct {
	PuntID            int64          `json:"punt_id"`
	GameID            string         `json:"game_id"`
	DriveID           string         `json:"drive_id"`
	Season            int            `json:"season"`
	Team              string         `json:"team"`     // punting team abbreviation
	Opponent          string         `json:"opponent"` // receiving team abbreviation
	Territory         string         `json:"territory"`
	DownDistance      string         `json:"down_distance"`
	Clock             string         `json:"clock"`
	Quarter           int            `json:"quarter"`
	TeamScore         int            `json:"team_score"`
	OpponentScore     int            `json:"opponent_score"`
	SurrenderIndex    float64        `json:"surrender_index"`
	SeasonPercentile  float64        `json:"season_percentile"`
	HistoryPercentile float64        `json:"history_percentile"`
	DelayOfGame       bool           `json:"delay_of_game"`
	Penalty           *PenaltyDetail `json:"penalty,omitempty"`
	DetectedAt        time.Time      `json:"detected_at"`
}

// PuntRecord is a punt as stored in the archive, including posting state.
type PuntRecord struct {
	ID                int64     `json:"id"`
	GameID            string    `json:"game_id"`
	DriveID           string    `json:"drive_id"`
	Season            int       `json:"season"`
	Team              string    `json:"team"`
	Opponent          string    `json:"opponent"`
	Quarter           int       `json:"quarter"`
	Clock             string    `json:"clock"`
	Territory         string    `json:"territory"`
	DownDistance      string    `json:"down_distance"`
	TeamScore         int       `json:"team_score"`
	OpponentScore     int       `json:"opponent_score"`
	SurrenderIndex    float64   `json:"surrender_index"`
	SeasonPercentile  float64   `json:"season_percentile"`
	HistoryPercentile float64   `json:"history_percentile"`
	DelayOfGame       bool      `json:"delay_of_game"`
	UnadjustedIndex   *float64  `json:"unadjusted_index,omitempty"`
	TweetID           string    `json:"tweet_id,omitempty"`
	NinetyTweetID     string    `json:"ninety_tweet_id,omitempty"`
	Canceled          bool      `json:"canceled"`
	DetectedAt        time.Time `json:"detected_at"`
}

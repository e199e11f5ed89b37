package tweeter

import (
	"testing"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

func TestFormatIndex(t *testing.T) {
	tests := []struct {
		index float64
		want  string
	}{
		{16, "16.0"},
		{74.586, "74.59"},
		{0.2, "0.2"},
		{2.5937424601, "2.59"},
		{1250.9999, "1251.0"},
	}

	for _, tt := range tests {
		if got := formatIndex(tt.index); got != tt.want {
			t.Errorf("formatIndex(%v) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestFormatPercentile(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "0th"},
		{1, "1st"},
		{2.9, "2nd"},
		{3, "3rd"},
		{4.2, "4th"},
		{11, "11th"},
		{11.9, "11th"},
		{12.4, "12th"},
		{13, "13th"},
		{21, "21st"},
		{22.8, "22nd"},
		{23, "23rd"},
		{85.7, "85th"},
		{91.2, "91st"},
		{92, "92nd"},
		{100, "100th"},
		// the 99th percentile keeps extra precision
		{99.0, "99.0th"},
		{99.42, "99.4th"},
		{99.5, "99.5th"},
		{99.91, "99.91st"},
		{99.92, "99.92nd"},
		{99.9934, "99.99th"},
		{99.995, "99.995th"},
	}

	for _, tt := range tests {
		if got := formatPercentile(tt.pct); got != tt.want {
			t.Errorf("formatPercentile(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestFormatQuarter(t *testing.T) {
	tests := []struct {
		quarter int
		want    string
	}{
		{1, "the 1st"},
		{2, "the 2nd"},
		{3, "the 3rd"},
		{4, "the 4th"},
		{5, "OT"},
		{6, "2 OT"},
		{7, "3 OT"},
		{8, ""},
	}

	for _, tt := range tests {
		if got := formatQuarter(tt.quarter); got != tt.want {
			t.Errorf("formatQuarter(%d) = %q, want %q", tt.quarter, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		team, opponent int
		want           string
	}{
		{24, 10, "winning 24 to 10"},
		{3, 17, "losing 3 to 17"},
		{0, 0, "tied 0 to 0"},
	}

	for _, tt := range tests {
		if got := formatScore(tt.team, tt.opponent); got != tt.want {
			t.Errorf("formatScore(%d, %d) = %q, want %q", tt.team, tt.opponent, got, tt.want)
		}
	}
}

func TestComposeTweet(t *testing.T) {
	event := models.PuntEvent{
		Season:            2023,
		Team:              "TEN",
		Opponent:          "SEA",
		Territory:         "TEN 45",
		DownDistance:      "4th & 4",
		Clock:             "5:31",
		Quarter:           4,
		TeamScore:         10,
		OpponentScore:     17,
		SurrenderIndex:    55.234,
		SeasonPercentile:  97.4,
		HistoryPercentile: 98.6,
	}

	want := "TEN decided to punt to SEA from the TEN 45 on 4th & 4 with 5:31 remaining in the 4th while losing 10 to 17.\n\n" +
		"With a Surrender Index of 55.23, this punt ranks at the 97th percentile of cowardly punts of the 2023 season, " +
		"and the 98th percentile of all punts since 1999."

	if got := ComposeTweet(event); got != want {
		t.Errorf("ComposeTweet =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeTweetDelayOfGame(t *testing.T) {
	event := models.PuntEvent{
		Season:            2023,
		Team:              "TEN",
		Opponent:          "SEA",
		Territory:         "TEN 45",
		DownDistance:      "4th & 5",
		Clock:             "5:31",
		Quarter:           5,
		TeamScore:         14,
		OpponentScore:     14,
		SurrenderIndex:    16,
		SeasonPercentile:  91.2,
		HistoryPercentile: 99.0,
		DelayOfGame:       true,
	}

	want := "TEN decided to punt to SEA from the TEN 45* on 4th & 5* with 5:31 remaining in OT while tied 14 to 14.\n\n" +
		"With a Surrender Index of 16.0, this punt ranks at the 91st percentile of cowardly punts of the 2023 season, " +
		"and the 99.0th percentile of all punts since 1999."

	if got := ComposeTweet(event); got != want {
		t.Errorf("ComposeTweet =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeDelayOfGameReply(t *testing.T) {
	event := models.PuntEvent{
		Season:       2023,
		Team:         "TEN",
		Territory:    "TEN 45",
		DownDistance: "4th & 5",
		DelayOfGame:  true,
		Penalty: &models.PenaltyDetail{
			MovedToTerritory:           "TEN 40",
			MovedToDownDistance:        "4th & 10",
			UnadjustedIndex:            12.0,
			UnadjustedSeasonPercentile: 88.3,
		},
	}

	want := "*TEN committed a (likely intentional) delay of game penalty, moving the play from 4th & 5 at the TEN 45 " +
		"to 4th & 10 at the TEN 40.\n\n" +
		"If this penalty was in fact unintentional, the Surrender Index would be 12.0, " +
		"ranking at the 88th percentile of the 2023 season."

	if got := ComposeDelayOfGameReply(event); got != want {
		t.Errorf("ComposeDelayOfGameReply =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeDelayOfGameReplyWithoutPenalty(t *testing.T) {
	if got := ComposeDelayOfGameReply(models.PuntEvent{DelayOfGame: true}); got != "" {
		t.Errorf("ComposeDelayOfGameReply without penalty detail = %q, want empty", got)
	}
}

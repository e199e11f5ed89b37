package nfl_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/andrew-shackelford/Surrender-Index/internal/nfl"
)

const scoreboardPayload = `{
	"events": [
		{
			"id": "401547403",
			"name": "Tennessee Titans at Seattle Seahawks",
			"date": "2023-12-24T21:05Z"
		},
		{
			"id": "401547404",
			"name": "Buffalo Bills at Los Angeles Chargers",
			"date": "2023-12-24T01:00Z"
		}
	]
}`

const summaryPayload = `{
	"boxscore": {
		"teams": [
			{"team": {"id": "10", "abbreviation": "TEN"}},
			{"team": {"id": "26", "abbreviation": "SEA"}}
		]
	},
	"header": {
		"id": "401547403",
		"season": {"year": 2023, "type": 2},
		"competitions": [
			{"status": {"type": {"name": "STATUS_IN_PROGRESS"}}}
		]
	},
	"drives": {
		"previous": [
			{
				"id": "4015474031",
				"result": "Punt",
				"plays": [
					{
						"text": "Derrick Henry run for 2 yards",
						"type": {"text": "Rush"},
						"period": {"number": 4},
						"clock": {"displayValue": "6:12"},
						"awayScore": 10,
						"homeScore": 17,
						"start": {
							"yardLine": 43,
							"yardsToEndzone": 57,
							"down": 3,
							"distance": 6,
							"possessionText": "TEN 43",
							"shortDownDistanceText": "3rd & 6",
							"team": {"id": "10"}
						},
						"end": {
							"yardLine": 45,
							"yardsToEndzone": 55,
							"down": 4,
							"distance": 4,
							"possessionText": "TEN 45",
							"shortDownDistanceText": "4th & 4",
							"team": {"id": "10"}
						}
					},
					{
						"text": "Ryan Stonehouse punts 44 yards",
						"type": {"text": "Punt"},
						"period": {"number": 4},
						"clock": {"displayValue": "5:31"},
						"awayScore": 10,
						"homeScore": 17,
						"start": {
							"yardLine": 45,
							"yardsToEndzone": 55,
							"down": 4,
							"distance": 4,
							"possessionText": "TEN 45",
							"shortDownDistanceText": "4th & 4",
							"team": {"id": "10"}
						},
						"end": {
							"yardLine": 11,
							"yardsToEndzone": 89,
							"down": 1,
							"distance": 10,
							"possessionText": "SEA 11",
							"shortDownDistanceText": "1st & 10",
							"team": {"id": "26"}
						}
					}
				]
			}
		]
	}
}`

func TestParseScoreboard(t *testing.T) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(scoreboardPayload), &raw); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	games, err := nfl.ParseScoreboard(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}

	if games[0].ID != "401547403" {
		t.Errorf("game ID = %q, want 401547403", games[0].ID)
	}
	if games[0].Name != "Tennessee Titans at Seattle Seahawks" {
		t.Errorf("game name = %q", games[0].Name)
	}
	want := time.Date(2023, 12, 24, 21, 5, 0, 0, time.UTC)
	if !games[0].Kickoff.Equal(want) {
		t.Errorf("kickoff = %v, want %v", games[0].Kickoff, want)
	}
}

func TestParseScoreboardEmpty(t *testing.T) {
	if _, err := nfl.ParseScoreboard(map[string]interface{}{}); err == nil {
		t.Fatal("expected error for empty scoreboard")
	}
}

func TestParseGameSummary(t *testing.T) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(summaryPayload), &raw); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	game, err := nfl.ParseGameSummary(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if game.ID != "401547403" {
		t.Errorf("game ID = %q, want 401547403", game.ID)
	}
	if game.Away.Abbreviation != "TEN" || game.Home.Abbreviation != "SEA" {
		t.Errorf("teams = %q at %q, want TEN at SEA", game.Away.Abbreviation, game.Home.Abbreviation)
	}
	if game.SeasonYear != 2023 {
		t.Errorf("season year = %d, want 2023", game.SeasonYear)
	}
	if game.SeasonType != 2 {
		t.Errorf("season type = %d, want 2", game.SeasonType)
	}
	if game.Postseason() {
		t.Error("regular season game reported as postseason")
	}
	if game.Final {
		t.Error("in-progress game reported as final")
	}

	if len(game.Drives) != 1 {
		t.Fatalf("expected 1 drive, got %d", len(game.Drives))
	}
	drive := game.Drives[0]
	if drive.ID != "4015474031" {
		t.Errorf("drive ID = %q, want 4015474031", drive.ID)
	}
	if drive.Result != "Punt" {
		t.Errorf("drive result = %q, want Punt", drive.Result)
	}
	if len(drive.Plays) != 2 {
		t.Fatalf("expected 2 plays, got %d", len(drive.Plays))
	}

	punt := drive.Plays[1]
	if punt.TypeText != "Punt" {
		t.Errorf("play type = %q, want Punt", punt.TypeText)
	}
	if punt.Quarter != 4 {
		t.Errorf("quarter = %d, want 4", punt.Quarter)
	}
	if punt.Clock != "5:31" {
		t.Errorf("clock = %q, want 5:31", punt.Clock)
	}
	if punt.AwayScore != 10 || punt.HomeScore != 17 {
		t.Errorf("score = %d-%d, want 10-17", punt.AwayScore, punt.HomeScore)
	}
	if punt.Start.YardLine != 45 {
		t.Errorf("start yard line = %d, want 45", punt.Start.YardLine)
	}
	if punt.Start.PossessionText != "TEN 45" {
		t.Errorf("possession text = %q, want TEN 45", punt.Start.PossessionText)
	}
	if punt.Start.ShortDownDistanceText != "4th & 4" {
		t.Errorf("down distance = %q, want 4th & 4", punt.Start.ShortDownDistanceText)
	}
	if punt.Start.TeamID != "10" {
		t.Errorf("start team = %q, want 10", punt.Start.TeamID)
	}
	if punt.End.TeamID != "26" {
		t.Errorf("end team = %q, want 26", punt.End.TeamID)
	}
}

func TestParseGameSummaryMissingTeams(t *testing.T) {
	if _, err := nfl.ParseGameSummary(map[string]interface{}{}); err == nil {
		t.Fatal("expected error for summary without teams")
	}
}

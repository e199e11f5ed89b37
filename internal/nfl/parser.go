// Package nfl parses ESPN NFL feed payloads into models and supplies the
// football-specific helpers the detector scores punts with.
package nfl

import (
	"fmt"
	"strconv"
	"time"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// ParseScoreboard extracts the scheduled games from a scoreboard payload.
// Events with an unparseable kickoff keep a zero Kickoff; the poller's
// active-window check never selects them.
func ParseScoreboard(raw map[string]interface{}) ([]models.ScheduledGame, error) {
	events := extractArray(raw, "events")
	if len(events) == 0 {
		return nil, fmt.Errorf("no events found in scoreboard")
	}

	games := make([]models.ScheduledGame, 0, len(events))
	for _, eventInterface := range events {
		event, ok := eventInterface.(map[string]interface{})
		if !ok {
			continue
		}

		game := models.ScheduledGame{
			ID:   extractString(event, "id"),
			Name: extractString(event, "name"),
		}
		if game.ID == "" {
			continue
		}

		if dateStr := extractString(event, "date"); dateStr != "" {
			game.Kickoff = parseKickoff(dateStr)
		}

		games = append(games, game)
	}

	return games, nil
}

// ParseGameSummary parses a game summary payload: teams from the boxscore
// (away first, home second), final status and season from the header, and
// every completed drive with its plays.
func ParseGameSummary(raw map[string]interface{}) (*models.Game, error) {
	game := &models.Game{}

	boxscore := extractMap(raw, "boxscore")
	teams := extractArray(boxscore, "teams")
	if len(teams) < 2 {
		return nil, fmt.Errorf("insufficient teams in boxscore")
	}
	game.Away = parseTeam(teams[0])
	game.Home = parseTeam(teams[1])

	header := extractMap(raw, "header")
	game.ID = extractString(header, "id")
	if game.ID == "" {
		game.ID = extractString(raw, "id")
	}

	season := extractMap(header, "season")
	game.SeasonYear = extractInt(season, "year")
	game.SeasonType = extractInt(season, "type")

	competitions := extractArray(header, "competitions")
	if len(competitions) > 0 {
		comp, _ := competitions[0].(map[string]interface{})
		status := extractMap(comp, "status")
		statusType := extractMap(status, "type")
		game.Final = extractString(statusType, "name") == "STATUS_FINAL"
	}

	drives := extractMap(raw, "drives")
	previous := extractArray(drives, "previous")
	game.Drives = make([]models.Drive, 0, len(previous))
	for _, driveInterface := range previous {
		driveMap, ok := driveInterface.(map[string]interface{})
		if !ok {
			continue
		}
		game.Drives = append(game.Drives, parseDrive(driveMap))
	}

	return game, nil
}

func parseTeam(teamInterface interface{}) models.Team {
	wrapper, ok := teamInterface.(map[string]interface{})
	if !ok {
		return models.Team{}
	}
	team := extractMap(wrapper, "team")
	return models.Team{
		ID:           extractString(team, "id"),
		Abbreviation: extractString(team, "abbreviation"),
	}
}

func parseDrive(m map[string]interface{}) models.Drive {
	drive := models.Drive{
		ID:     extractString(m, "id"),
		Result: extractString(m, "result"),
	}

	plays := extractArray(m, "plays")
	drive.Plays = make([]models.Play, 0, len(plays))
	for _, playInterface := range plays {
		playMap, ok := playInterface.(map[string]interface{})
		if !ok {
			continue
		}
		drive.Plays = append(drive.Plays, parsePlay(playMap))
	}

	return drive
}

func parsePlay(m map[string]interface{}) models.Play {
	return models.Play{
		Text:      extractString(m, "text"),
		TypeText:  extractString(extractMap(m, "type"), "text"),
		Quarter:   extractInt(extractMap(m, "period"), "number"),
		Clock:     extractString(extractMap(m, "clock"), "displayValue"),
		AwayScore: extractInt(m, "awayScore"),
		HomeScore: extractInt(m, "homeScore"),
		Start:     parseSpot(extractMap(m, "start")),
		End:       parseSpot(extractMap(m, "end")),
	}
}

func parseSpot(m map[string]interface{}) models.Spot {
	return models.Spot{
		YardLine:              extractInt(m, "yardLine"),
		YardsToEndzone:        extractInt(m, "yardsToEndzone"),
		Down:                  extractInt(m, "down"),
		Distance:              extractInt(m, "distance"),
		PossessionText:        extractString(m, "possessionText"),
		ShortDownDistanceText: extractString(m, "shortDownDistanceText"),
		TeamID:                extractString(extractMap(m, "team"), "id"),
	}
}

// parseKickoff parses the scoreboard date format. ESPN omits seconds
// ("2023-09-10T17:00Z"), so RFC3339 alone is not enough.
func parseKickoff(dateStr string) time.Time {
	t, err := time.Parse("2006-01-02T15:04Z07:00", dateStr)
	if err == nil {
		return t.UTC()
	}
	t, err = time.Parse(time.RFC3339, dateStr)
	if err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// parseInt parses an int from interface{}
func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}

// extractString safely extracts a string from a map
func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// extractInt safely extracts an int from a map
func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

// extractMap safely extracts a map from a map
func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

// extractArray safely extracts an array from a map
func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

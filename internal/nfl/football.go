package nfl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
	"github.com/andrew-shackelford/Surrender-Index/pkg/surrender"
)

const (
	quarterSeconds  = 900
	overtimeSeconds = 600
)

// PossessingTeam returns the abbreviation of the team with the ball on a
// play. Some feed rows omit the team on the start spot, in which case the
// end spot is consulted.
func PossessingTeam(play models.Play, game *models.Game) string {
	teamID := play.Start.TeamID
	if teamID == "" {
		teamID = play.End.TeamID
	}
	switch teamID {
	case game.Away.ID:
		return game.Away.Abbreviation
	case game.Home.ID:
		return game.Home.Abbreviation
	default:
		return ""
	}
}

// OtherTeam returns the opponent of the given team abbreviation.
func OtherTeam(game *models.Game, abbreviation string) string {
	if game.Home.Abbreviation == abbreviation {
		return game.Away.Abbreviation
	}
	return game.Home.Abbreviation
}

// YardLineNumber returns the numeric yard line of the start spot. Midfield
// reports no possession side, so the raw yard line is used directly; every
// other spot encodes the number in the possession text ("TEN 42").
func YardLineNumber(play models.Play) (int, error) {
	if play.Start.YardLine == 50 {
		return 50, nil
	}
	fields := strings.Fields(play.Start.PossessionText)
	if len(fields) != 2 {
		return 0, fmt.Errorf("unrecognized possession text %q", play.Start.PossessionText)
	}
	yardLine, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("unrecognized possession text %q", play.Start.PossessionText)
	}
	return yardLine, nil
}

// InOpposingTerritory reports whether the start spot is past midfield.
func InOpposingTerritory(play models.Play) bool {
	return play.Start.YardsToEndzone < 50
}

// SecondsFromClock converts a "MM:SS" game clock to seconds remaining.
func SecondsFromClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("unrecognized clock %q", clock)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("unrecognized clock %q", clock)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("unrecognized clock %q", clock)
	}
	return minutes*60 + seconds, nil
}

// SecondsSinceHalftime returns the seconds of game time elapsed since the
// start of the third quarter. Regular season overtime runs ten minutes;
// postseason overtime runs a full fifteen.
func SecondsSinceHalftime(play models.Play, game *models.Game) (int, error) {
	remaining, err := SecondsFromClock(play.Clock)
	if err != nil {
		return 0, err
	}

	var elapsed int
	if play.Quarter == 5 && !game.Postseason() {
		elapsed = overtimeSeconds - remaining
	} else {
		elapsed = quarterSeconds - remaining
	}

	since := elapsed + quarterSeconds*(play.Quarter-3)
	if since < 0 {
		since = 0
	}
	return since, nil
}

// ScoreDiff returns the possessing team's score minus the opponent's on the
// given play. Pass the play before the punt: the punt play itself can carry
// scores updated by a return touchdown.
func ScoreDiff(play models.Play, game *models.Game) int {
	if PossessingTeam(play, game) == game.Home.Abbreviation {
		return play.HomeScore - play.AwayScore
	}
	return play.AwayScore - play.HomeScore
}

// Scores returns the possessing team's score and the opponent's score on
// the given play, in that order.
func Scores(play models.Play, game *models.Game) (int, int) {
	if PossessingTeam(play, game) == game.Home.Abbreviation {
		return play.HomeScore, play.AwayScore
	}
	return play.AwayScore, play.HomeScore
}

// IsPuntDrive reports whether a drive ended in a punt.
func IsPuntDrive(drive models.Drive) bool {
	return strings.Contains(strings.ToLower(drive.Result), "punt")
}

// PuntPlay returns the punt play of a drive and the play before it. The
// last play typed as a punt wins, since penalties can force a team to punt
// more than once. Drives whose play types are missing fall back to the
// final two plays.
func PuntPlay(drive models.Drive) (models.Play, models.Play, bool) {
	if len(drive.Plays) < 2 {
		return models.Play{}, models.Play{}, false
	}

	punt := drive.Plays[len(drive.Plays)-1]
	prev := drive.Plays[len(drive.Plays)-2]
	for i := 1; i < len(drive.Plays); i++ {
		if strings.Contains(strings.ToLower(drive.Plays[i].TypeText), "punt") {
			punt = drive.Plays[i]
			prev = drive.Plays[i-1]
		}
	}
	return punt, prev, true
}

// IsDelayOfGame reports whether the play before the punt was a delay of
// game penalty that backed the punting team up.
func IsDelayOfGame(punt, prev models.Play) bool {
	return strings.Contains(strings.ToLower(prev.Text), "delay of game") &&
		punt.Start.Distance > prev.Start.Distance
}

// PuntSituation assembles the scoring inputs for a punt play. A start spot
// whose yard line cannot be read scores zero field position rather than
// failing the punt.
func PuntSituation(punt, prev models.Play, game *models.Game) (surrender.Situation, error) {
	sit := surrender.Situation{
		OpposingTerritory: InOpposingTerritory(punt),
		Distance:          punt.Start.Distance,
		ScoreDiff:         ScoreDiff(prev, game),
		Quarter:           punt.Quarter,
	}

	if yardLine, err := YardLineNumber(punt); err == nil {
		sit.YardLine = yardLine
	}

	since, err := SecondsSinceHalftime(punt, game)
	if err != nil {
		return surrender.Situation{}, err
	}
	sit.SecondsSinceHalftime = since

	return sit, nil
}

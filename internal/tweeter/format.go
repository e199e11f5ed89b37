package tweeter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// ComposeTweet renders the tweet for a detected punt. When the punt
// followed a delay of game penalty, the field position and distance are
// marked with asterisks and explained in a reply.
func ComposeTweet(event models.PuntEvent) string {
	asterisk := ""
	if event.DelayOfGame {
		asterisk = "*"
	}

	playStr := fmt.Sprintf("%s decided to punt to %s from the %s%s on %s%s with %s remaining in %s while %s.",
		event.Team,
		event.Opponent,
		event.Territory,
		asterisk,
		event.DownDistance,
		asterisk,
		event.Clock,
		formatQuarter(event.Quarter),
		formatScore(event.TeamScore, event.OpponentScore))

	surrenderStr := fmt.Sprintf("With a Surrender Index of %s, this punt ranks at the %s percentile of cowardly punts of the %d season, and the %s percentile of all punts since 1999.",
		formatIndex(event.SurrenderIndex),
		formatPercentile(event.SeasonPercentile),
		event.Season,
		formatPercentile(event.HistoryPercentile))

	return playStr + "\n\n" + surrenderStr
}

// ComposeDelayOfGameReply renders the reply posted under a delay of game
// punt, explaining what the Surrender Index would have been without the
// penalty.
func ComposeDelayOfGameReply(event models.PuntEvent) string {
	penalty := event.Penalty
	if penalty == nil {
		return ""
	}

	return fmt.Sprintf("*%s committed a (likely intentional) delay of game penalty, moving the play from %s at the %s to %s at the %s.\n\nIf this penalty was in fact unintentional, the Surrender Index would be %s, ranking at the %s percentile of the %d season.",
		event.Team,
		event.DownDistance,
		event.Territory,
		penalty.MovedToDownDistance,
		penalty.MovedToTerritory,
		formatIndex(penalty.UnadjustedIndex),
		formatPercentile(penalty.UnadjustedSeasonPercentile),
		event.Season)
}

// formatIndex renders an index rounded to two decimals, always keeping at
// least one decimal place ("16.0", not "16").
func formatIndex(index float64) string {
	return withDecimal(strconv.FormatFloat(roundTo(index, 2), 'f', -1, 64))
}

// formatPercentile renders a percentile as an ordinal, rounding down to a
// whole number. Punts deep in the 99th percentile keep extra decimals so
// the truly historic ones stand apart.
func formatPercentile(pct float64) string {
	truncated := int(pct)

	switch truncated % 100 {
	case 11, 12, 13:
		return strconv.Itoa(truncated) + "th"
	}

	if truncated == 99 {
		var rendered string
		switch {
		case pct < 99.9:
			rendered = withDecimal(strconv.FormatFloat(roundTo(pct, 1), 'f', -1, 64))
		case pct < 99.99:
			rendered = withDecimal(strconv.FormatFloat(roundTo(pct, 2), 'f', -1, 64))
		default:
			// round down
			rendered = withDecimal(strconv.FormatFloat(float64(int(pct*1000))/1000, 'f', -1, 64))
		}
		return rendered + ordinalSuffix(rendered)
	}

	rendered := strconv.Itoa(truncated)
	return rendered + ordinalSuffix(rendered)
}

// ordinalSuffix picks the suffix from the last character of the rendered
// number, so "99.92" reads "99.92nd".
func ordinalSuffix(rendered string) string {
	if rendered == "" {
		return "th"
	}
	switch rendered[len(rendered)-1] {
	case '1':
		return "st"
	case '2':
		return "nd"
	case '3':
		return "rd"
	}
	return "th"
}

func formatQuarter(quarter int) string {
	switch {
	case quarter >= 1 && quarter <= 4:
		rendered := strconv.Itoa(quarter)
		return "the " + rendered + ordinalSuffix(rendered)
	case quarter == 5:
		return "OT"
	case quarter == 6:
		return "2 OT"
	case quarter == 7:
		return "3 OT"
	}
	return ""
}

// formatScore renders the score from the punting team's point of view.
func formatScore(teamScore, opponentScore int) string {
	var lead string
	switch {
	case teamScore > opponentScore:
		lead = "winning"
	case opponentScore > teamScore:
		lead = "losing"
	default:
		lead = "tied"
	}
	return fmt.Sprintf("%s %d to %d", lead, teamScore, opponentScore)
}

func roundTo(x float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(x*shift) / shift
}

func withDecimal(s string) string {
	if !strings.Contains(s, ".") {
		return s + ".0"
	}
	return s
}

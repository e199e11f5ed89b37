// Package surrender scores punt decisions. The Surrender Index is the product
// of four factors: a field position score and three multipliers for distance,
// score differential, and game clock. Higher means more cowardly.
package surrender

import "math"

// Situation captures the pre-snap state a punt is scored from.
//
// YardLine is the distance marker on the field, read from the possessing
// team's side: 35 means "their own 35" in their own territory and "the
// opponent's 35" when OpposingTerritory is set. Midfield is 50. Zero means
// the spot could not be determined, which zeroes the whole index.
//
// ScoreDiff is the punting team's score minus the opponent's, taken from the
// play before the punt. SecondsSinceHalftime is game time elapsed since the
// start of the third quarter (0 for any first-half punt).
type Situation struct {
	YardLine             int
	OpposingTerritory    bool
	Distance             int
	ScoreDiff            int
	Quarter              int
	SecondsSinceHalftime int
}

// FieldPositionScore rates where the punt was taken from.
//
// Punting from midfield scores 1.1^10. In a team's own territory the score
// grows by 10% per yard past the 40 (floored at 1.0 behind it). Punting from
// opposing territory compounds a 20% penalty per yard inside the 50 on top of
// the midfield score, so a punt from the opponent's 40 is already
// 1.2^10 * 1.1^10.
func FieldPositionScore(s Situation) float64 {
	if s.YardLine == 0 {
		return 0
	}
	if s.YardLine == 50 {
		return math.Pow(1.1, 10)
	}
	if !s.OpposingTerritory {
		return math.Max(1.0, math.Pow(1.1, float64(s.YardLine-40)))
	}
	return math.Pow(1.2, float64(50-s.YardLine)) * math.Pow(1.1, 10)
}

// DistanceMultiplier discounts punts facing long yardage. 4th-and-10 or more
// is the most defensible punt (0.2); 4th-and-1 gets no discount at all.
func DistanceMultiplier(distance int) float64 {
	switch {
	case distance >= 10:
		return 0.2
	case distance >= 7:
		return 0.4
	case distance >= 4:
		return 0.6
	case distance >= 2:
		return 0.8
	default:
		return 1.0
	}
}

// ScoreMultiplier scales by the game state. Punting while ahead is neutral,
// while tied doubles, and punting while trailing quadruples unless the game
// is already out of reach (down more than 8), which merely triples.
func ScoreMultiplier(scoreDiff int) float64 {
	switch {
	case scoreDiff > 0:
		return 1.0
	case scoreDiff == 0:
		return 2.0
	case scoreDiff < -8:
		return 3.0
	default:
		return 4.0
	}
}

// ClockMultiplier penalizes second-half punts by a team that is not winning.
// The penalty grows cubically with seconds elapsed since halftime:
// (seconds * 0.001)^3 + 1. Winning teams and first-half punts are unscaled.
func ClockMultiplier(s Situation) float64 {
	if s.ScoreDiff <= 0 && s.Quarter > 2 {
		return math.Pow(float64(s.SecondsSinceHalftime)*0.001, 3) + 1.0
	}
	return 1.0
}

// Index computes the Surrender Index for a situation.
func Index(s Situation) float64 {
	return FieldPositionScore(s) * DistanceMultiplier(s.Distance) * ScoreMultiplier(s.ScoreDiff) * ClockMultiplier(s)
}

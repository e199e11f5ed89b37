// Package detector scans parsed games for punt drives, scores them, and
// hands detected punts to the archive and the punt stream.
package detector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/nfl"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
	"github.com/andrew-shackelford/Surrender-Index/pkg/surrender"
)

// Store persists detected punts
type Store interface {
	InsertPunt(ctx context.Context, punt models.PuntRecord) (int64, error)
}

// Publisher pushes detected punts onto the punt stream
type Publisher interface {
	Publish(ctx context.Context, event models.PuntEvent) error
}

// Tracker deduplicates drive processing
type Tracker interface {
	Seen(ctx context.Context, gameID, driveID string) (bool, error)
	IsQueued(ctx context.Context, gameID, driveID string) (bool, error)
	MarkQueued(ctx context.Context, gameID, driveID string) error
	HasBeenTweeted(ctx context.Context, gameID, driveID string) (bool, error)
}

// ErrorReporter notifies the operator about processing failures
type ErrorReporter interface {
	Error(ctx context.Context, contextMsg string, err error)
}

// Engine orchestrates punt detection
type Engine struct {
	store       Store
	publisher   Publisher
	tracker     Tracker
	reporter    ErrorReporter
	percentiles *surrender.PercentileIndex
	season      int
	logger      *zap.SugaredLogger
}

// NewEngine creates a new detection engine. The season is a fallback for
// game summaries whose header omits the season year.
func NewEngine(
	store Store,
	publisher Publisher,
	tracker Tracker,
	reporter ErrorReporter,
	percentiles *surrender.PercentileIndex,
	season int,
	logger *zap.SugaredLogger,
) *Engine {
	return &Engine{
		store:       store,
		publisher:   publisher,
		tracker:     tracker,
		reporter:    reporter,
		percentiles: percentiles,
		season:      season,
		logger:      logger,
	}
}

// ProcessGame scans every completed drive of a game for new punts. A
// failure on one drive is reported and does not stop the scan.
func (e *Engine) ProcessGame(ctx context.Context, game *models.Game) {
	for _, drive := range game.Drives {
		if err := e.processDrive(ctx, game, drive); err != nil {
			e.logger.Errorw("Failed to process punt drive",
				"game_id", game.ID,
				"drive_id", drive.ID,
				"error", err)
			e.reporter.Error(ctx, "Failed to process punt from drive "+drive.ID, err)
		}
	}
}

func (e *Engine) processDrive(ctx context.Context, game *models.Game, drive models.Drive) error {
	if drive.Result == "" || len(drive.Plays) < 2 || !nfl.IsPuntDrive(drive) {
		return nil
	}

	tweeted, err := e.tracker.HasBeenTweeted(ctx, game.ID, drive.ID)
	if err != nil {
		return fmt.Errorf("checking tweeted marker: %w", err)
	}
	if tweeted {
		return nil
	}

	// First sighting only arms the drive. ESPN keeps editing a drive's
	// plays for a while after it ends, so a punt is processed no earlier
	// than its second sighting.
	seenBefore, err := e.tracker.Seen(ctx, game.ID, drive.ID)
	if err != nil {
		return fmt.Errorf("recording drive sighting: %w", err)
	}
	if !seenBefore {
		e.logger.Debugw("Armed punt drive", "game_id", game.ID, "drive_id", drive.ID)
		return nil
	}

	queued, err := e.tracker.IsQueued(ctx, game.ID, drive.ID)
	if err != nil {
		return fmt.Errorf("checking queued marker: %w", err)
	}
	if queued {
		return nil
	}

	punt, prev, ok := nfl.PuntPlay(drive)
	if !ok {
		return nil
	}

	// A delay of game right before the punt means the kicking team backed
	// itself up on purpose. Score the punt where it would have happened
	// without the penalty.
	delayOfGame := nfl.IsDelayOfGame(punt, prev)
	scoringPlay := punt
	if delayOfGame {
		scoringPlay.Start = prev.Start
		scoringPlay.End = prev.End
	}

	sit, err := nfl.PuntSituation(scoringPlay, prev, game)
	if err != nil {
		return fmt.Errorf("building punt situation: %w", err)
	}

	index := surrender.Index(sit)
	seasonPct, historyPct := e.percentiles.Rank(index)
	e.percentiles.Add(index)

	var penalty *models.PenaltyDetail
	var unadjusted *float64
	if delayOfGame {
		unadjSit, err := nfl.PuntSituation(punt, prev, game)
		if err != nil {
			return fmt.Errorf("building unadjusted situation: %w", err)
		}
		unadjIndex := surrender.Index(unadjSit)
		unadjSeasonPct, _ := e.percentiles.Rank(unadjIndex)
		penalty = &models.PenaltyDetail{
			MovedToTerritory:           punt.Start.PossessionText,
			MovedToDownDistance:        punt.Start.ShortDownDistanceText,
			UnadjustedIndex:            unadjIndex,
			UnadjustedSeasonPercentile: unadjSeasonPct,
		}
		unadjusted = &unadjIndex
	}

	team := nfl.PossessingTeam(scoringPlay, game)
	opponent := nfl.OtherTeam(game, team)
	teamScore, opponentScore := nfl.Scores(prev, game)

	season := game.SeasonYear
	if season == 0 {
		season = e.season
	}

	detectedAt := time.Now().UTC()

	puntID, err := e.store.InsertPunt(ctx, models.PuntRecord{
		GameID:            game.ID,
		DriveID:           drive.ID,
		Season:            season,
		Team:              team,
		Opponent:          opponent,
		Quarter:           punt.Quarter,
		Clock:             punt.Clock,
		Territory:         scoringPlay.Start.PossessionText,
		DownDistance:      scoringPlay.Start.ShortDownDistanceText,
		TeamScore:         teamScore,
		OpponentScore:     opponentScore,
		SurrenderIndex:    index,
		SeasonPercentile:  seasonPct,
		HistoryPercentile: historyPct,
		DelayOfGame:       delayOfGame,
		UnadjustedIndex:   unadjusted,
		DetectedAt:        detectedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting punt: %w", err)
	}

	event := models.PuntEvent{
		PuntID:            puntID,
		GameID:            game.ID,
		DriveID:           drive.ID,
		Season:            season,
		Team:              team,
		Opponent:          opponent,
		Territory:         scoringPlay.Start.PossessionText,
		DownDistance:      scoringPlay.Start.ShortDownDistanceText,
		Clock:             punt.Clock,
		Quarter:           punt.Quarter,
		TeamScore:         teamScore,
		OpponentScore:     opponentScore,
		SurrenderIndex:    index,
		SeasonPercentile:  seasonPct,
		HistoryPercentile: historyPct,
		DelayOfGame:       delayOfGame,
		Penalty:           penalty,
		DetectedAt:        detectedAt,
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publishing punt event: %w", err)
	}

	if err := e.tracker.MarkQueued(ctx, game.ID, drive.ID); err != nil {
		return fmt.Errorf("marking punt queued: %w", err)
	}

	e.logger.Infow("Punt detected",
		"game_id", game.ID,
		"drive_id", drive.ID,
		"team", team,
		"surrender_index", index,
		"season_percentile", seasonPct,
		"delay_of_game", delayOfGame)

	return nil
}

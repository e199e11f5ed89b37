// Package poller drives the polling loop: it keeps the week's scoreboard
// fresh, fetches summaries for every active game, and feeds them to the
// punt detector.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrew-shackelford/Surrender-Index/internal/nfl"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// Feed fetches raw NFL data
type Feed interface {
	Scoreboard(ctx context.Context) (map[string]interface{}, error)
	GameSummary(ctx context.Context, eventID string) (map[string]interface{}, error)
}

// GameCache stores raw snapshots for the API layer
type GameCache interface {
	WriteScoreboard(ctx context.Context, games []models.ScheduledGame) error
	WriteGameSummary(ctx context.Context, gameID string, raw map[string]interface{}) error
}

// Detector scans a parsed game for punts
type Detector interface {
	ProcessGame(ctx context.Context, game *models.Game)
}

// ErrorReporter notifies the operator about polling failures
type ErrorReporter interface {
	Error(ctx context.Context, contextMsg string, err error)
}

// Config tunes the polling cadence
type Config struct {
	ActiveInterval time.Duration // cycle length while games are live
	IdleInterval   time.Duration // sleep between checks when nothing is on
	RefreshHour    int           // local hour at which the scoreboard is refetched
	Concurrency    int           // concurrent summary fetches
}

// Poller runs the polling loop
type Poller struct {
	feed     Feed
	cache    GameCache
	detector Detector
	reporter ErrorReporter
	cfg      Config
	logger   *zap.SugaredLogger

	scheduled []models.ScheduledGame

	// A game is retired only on its second final sighting, since ESPN
	// occasionally flips a live game to final and back.
	armedFinal map[string]bool
	completed  map[string]bool
}

// New creates a new poller
func New(
	feed Feed,
	cache GameCache,
	detector Detector,
	reporter ErrorReporter,
	cfg Config,
	logger *zap.SugaredLogger,
) *Poller {
	if cfg.ActiveInterval <= 0 {
		cfg.ActiveInterval = 30 * time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 15 * time.Minute
	}
	if cfg.RefreshHour <= 0 {
		cfg.RefreshHour = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Poller{
		feed:       feed,
		cache:      cache,
		detector:   detector,
		reporter:   reporter,
		cfg:        cfg,
		logger:     logger,
		armedFinal: make(map[string]bool),
		completed:  make(map[string]bool),
	}
}

// Run polls until the context is canceled. Session failures back off
// exponentially starting at one minute; a clean session rollover resets
// the backoff.
func (p *Poller) Run(ctx context.Context) {
	backoff := time.Minute

	for {
		err := p.runSession(ctx)
		if ctx.Err() != nil {
			p.logger.Infow("Stopping poller")
			return
		}
		if err == nil {
			backoff = time.Minute
			continue
		}

		p.logger.Errorw("Polling session failed",
			"error", err,
			"retry_in", backoff)
		p.reporter.Error(ctx, "An error occurred", err)

		if waitErr := sleep(ctx, backoff); waitErr != nil {
			return
		}
		backoff *= 2
	}
}

// runSession refreshes the scoreboard and polls until the next refresh
// boundary.
func (p *Poller) runSession(ctx context.Context) error {
	if err := p.refreshScoreboard(ctx); err != nil {
		return err
	}

	stop := NextRefresh(time.Now(), p.cfg.RefreshHour)
	p.logger.Infow("Polling session started",
		"games_this_week", len(p.scheduled),
		"refresh_at", stop)

	for time.Now().Before(stop) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.pollOnce(ctx); err != nil {
			return err
		}
	}

	p.logger.Infow("Refreshing scoreboard for a new session")
	return nil
}

func (p *Poller) refreshScoreboard(ctx context.Context) error {
	raw, err := p.feed.Scoreboard(ctx)
	if err != nil {
		return fmt.Errorf("fetching scoreboard: %w", err)
	}

	games, err := nfl.ParseScoreboard(raw)
	if err != nil {
		return fmt.Errorf("parsing scoreboard: %w", err)
	}

	p.scheduled = games
	if err := p.cache.WriteScoreboard(ctx, games); err != nil {
		p.logger.Warnw("Failed to cache scoreboard", "error", err)
	}

	return nil
}

// pollOnce runs one cycle: find the active games, fetch their summaries
// concurrently, and hand each parsed game to the detector. The cycle
// always consumes at least the active interval of wall time.
func (p *Poller) pollOnce(ctx context.Context) error {
	start := time.Now()

	active := p.activeGameIDs(start)
	if len(active) == 0 {
		p.logger.Infow("No games active. Sleeping for 15 minutes...")
		return sleep(ctx, p.cfg.IdleInterval)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	var mu sync.Mutex
	games := make([]*models.Game, 0, len(active))

	for _, gameID := range active {
		gameID := gameID
		g.Go(func() error {
			raw, err := p.feed.GameSummary(gctx, gameID)
			if err != nil {
				return fmt.Errorf("fetching summary for game %s: %w", gameID, err)
			}

			if err := p.cache.WriteGameSummary(gctx, gameID, raw); err != nil {
				p.logger.Warnw("Failed to cache game summary", "game_id", gameID, "error", err)
			}

			game, err := nfl.ParseGameSummary(raw)
			if err != nil {
				return fmt.Errorf("parsing summary for game %s: %w", gameID, err)
			}
			if game.ID == "" {
				game.ID = gameID
			}

			mu.Lock()
			games = append(games, game)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, game := range games {
		p.logger.Infow("Getting data for game", "game_id", game.ID)
		p.detector.ProcessGame(ctx, game)
		p.observeFinal(game)
	}

	if remaining := p.cfg.ActiveInterval - time.Since(start); remaining > 0 {
		return sleep(ctx, remaining)
	}
	return nil
}

// activeGameIDs returns the scheduled games inside their active window.
func (p *Poller) activeGameIDs(now time.Time) []string {
	var active []string
	for _, game := range p.scheduled {
		if p.completed[game.ID] {
			continue
		}
		if InActiveWindow(game.Kickoff, now) {
			active = append(active, game.ID)
		}
	}
	return active
}

func (p *Poller) observeFinal(game *models.Game) {
	if !game.Final {
		return
	}
	if p.armedFinal[game.ID] {
		if !p.completed[game.ID] {
			p.logger.Infow("Game final, retiring", "game_id", game.ID)
			p.completed[game.ID] = true
		}
		return
	}
	p.armedFinal[game.ID] = true
}

// InActiveWindow reports whether a game should be polled: from fifteen
// minutes before kickoff until six hours after.
func InActiveWindow(kickoff, now time.Time) bool {
	if kickoff.IsZero() {
		return false
	}
	return kickoff.Add(-15*time.Minute).Before(now) && kickoff.Add(6*time.Hour).After(now)
}

// NextRefresh returns the next scoreboard refresh boundary: today at the
// refresh hour if that is still ahead, otherwise tomorrow.
func NextRefresh(now time.Time, hour int) time.Time {
	boundary := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if now.Hour() < hour {
		return boundary
	}
	return boundary.AddDate(0, 0, 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

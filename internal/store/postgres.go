// Package store persists punts and the historical index archive to
// Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Store reads and writes the punt archive
type Store struct {
	db *sql.DB
}

// New creates a new store
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS punts (
	id SERIAL PRIMARY KEY,
	game_id TEXT NOT NULL,
	drive_id TEXT NOT NULL,
	season INT NOT NULL,
	team TEXT NOT NULL,
	opponent TEXT NOT NULL,
	quarter INT NOT NULL,
	clock TEXT NOT NULL,
	territory TEXT NOT NULL,
	down_distance TEXT NOT NULL,
	team_score INT NOT NULL,
	opponent_score INT NOT NULL,
	surrender_index DOUBLE PRECISION NOT NULL,
	season_percentile DOUBLE PRECISION NOT NULL,
	history_percentile DOUBLE PRECISION NOT NULL,
	delay_of_game BOOLEAN NOT NULL DEFAULT FALSE,
	unadjusted_index DOUBLE PRECISION,
	tweet_id TEXT NOT NULL DEFAULT '',
	ninety_tweet_id TEXT NOT NULL DEFAULT '',
	canceled BOOLEAN NOT NULL DEFAULT FALSE,
	detected_at TIMESTAMPTZ NOT NULL,
	UNIQUE (game_id, drive_id)
);

CREATE INDEX IF NOT EXISTS idx_punts_season ON punts (season);
CREATE INDEX IF NOT EXISTS idx_punts_index ON punts (surrender_index DESC);

CREATE TABLE IF NOT EXISTS historical_indices (
	id SERIAL PRIMARY KEY,
	season INT NOT NULL,
	surrender_index DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_historical_season ON historical_indices (season);
`

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// InsertPunt writes a punt record and returns its ID.
func (s *Store) InsertPunt(ctx context.Context, punt models.PuntRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A punt can be re-detected when its queued marker lapses after a
	// failed post, so replays update in place instead of violating the
	// (game_id, drive_id) constraint.
	query := `
		INSERT INTO punts (
			game_id, drive_id, season, team, opponent, quarter, clock,
			territory, down_distance, team_score, opponent_score,
			surrender_index, season_percentile, history_percentile,
			delay_of_game, unadjusted_index, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (game_id, drive_id) DO UPDATE SET
			surrender_index = EXCLUDED.surrender_index,
			season_percentile = EXCLUDED.season_percentile,
			history_percentile = EXCLUDED.history_percentile,
			delay_of_game = EXCLUDED.delay_of_game,
			unadjusted_index = EXCLUDED.unadjusted_index,
			detected_at = EXCLUDED.detected_at
		RETURNING id
	`

	var puntID int64
	err = tx.QueryRowContext(
		ctx,
		query,
		punt.GameID,
		punt.DriveID,
		punt.Season,
		punt.Team,
		punt.Opponent,
		punt.Quarter,
		punt.Clock,
		punt.Territory,
		punt.DownDistance,
		punt.TeamScore,
		punt.OpponentScore,
		punt.SurrenderIndex,
		punt.SeasonPercentile,
		punt.HistoryPercentile,
		punt.DelayOfGame,
		punt.UnadjustedIndex,
		punt.DetectedAt,
	).Scan(&puntID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert punt: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return puntID, nil
}

// SetTweetIDs records the posted tweet IDs for a punt.
func (s *Store) SetTweetIDs(ctx context.Context, puntID int64, tweetID, ninetyTweetID string) error {
	query := `
		UPDATE punts
		SET tweet_id = $2, ninety_tweet_id = $3
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, query, puntID, tweetID, ninetyTweetID); err != nil {
		return fmt.Errorf("failed to set tweet IDs: %w", err)
	}
	return nil
}

// MarkCanceled flags a punt whose index was voted down.
func (s *Store) MarkCanceled(ctx context.Context, puntID int64) error {
	query := `UPDATE punts SET canceled = TRUE WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, puntID); err != nil {
		return fmt.Errorf("failed to mark punt canceled: %w", err)
	}
	return nil
}

// LoadSeasonIndices returns every stored index value for a season, used to
// seed the in-memory percentile ranking at startup.
func (s *Store) LoadSeasonIndices(ctx context.Context, season int) ([]float64, error) {
	query := `SELECT surrender_index FROM punts WHERE season = $1 ORDER BY id`
	return s.queryIndices(ctx, query, season)
}

// LoadHistoricalIndices returns the archive values for every season up to
// and including maxSeason.
func (s *Store) LoadHistoricalIndices(ctx context.Context, maxSeason int) ([]float64, error) {
	query := `SELECT surrender_index FROM historical_indices WHERE season <= $1 ORDER BY id`
	return s.queryIndices(ctx, query, maxSeason)
}

func (s *Store) queryIndices(ctx context.Context, query string, arg interface{}) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query indices: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan index value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index values: %w", err)
	}

	return values, nil
}

const puntColumns = `
	id, game_id, drive_id, season, team, opponent, quarter, clock,
	territory, down_distance, team_score, opponent_score,
	surrender_index, season_percentile, history_percentile,
	delay_of_game, unadjusted_index, tweet_id, ninety_tweet_id,
	canceled, detected_at
`

// RecentPunts returns the most recently detected punts.
func (s *Store) RecentPunts(ctx context.Context, limit int) ([]models.PuntRecord, error) {
	query := `SELECT ` + puntColumns + ` FROM punts ORDER BY detected_at DESC LIMIT $1`
	return s.queryPunts(ctx, query, limit)
}

// TopPunts returns the highest-scoring punts of a season.
func (s *Store) TopPunts(ctx context.Context, season, limit int) ([]models.PuntRecord, error) {
	query := `SELECT ` + puntColumns + ` FROM punts WHERE season = $1 ORDER BY surrender_index DESC LIMIT $2`
	return s.queryPunts(ctx, query, season, limit)
}

// GetPunt returns a single punt by ID, or sql.ErrNoRows.
func (s *Store) GetPunt(ctx context.Context, puntID int64) (*models.PuntRecord, error) {
	query := `SELECT ` + puntColumns + ` FROM punts WHERE id = $1`

	punt, err := scanPunt(s.db.QueryRowContext(ctx, query, puntID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query punt: %w", err)
	}
	return punt, nil
}

// CountPunts returns the number of punts recorded for a season.
func (s *Store) CountPunts(ctx context.Context, season int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM punts WHERE season = $1`, season).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count punts: %w", err)
	}
	return count, nil
}

func (s *Store) queryPunts(ctx context.Context, query string, args ...interface{}) ([]models.PuntRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punts: %w", err)
	}
	defer rows.Close()

	var punts []models.PuntRecord
	for rows.Next() {
		punt, err := scanPunt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punt: %w", err)
		}
		punts = append(punts, *punt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating punts: %w", err)
	}

	return punts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPunt(row rowScanner) (*models.PuntRecord, error) {
	var punt models.PuntRecord
	err := row.Scan(
		&punt.ID,
		&punt.GameID,
		&punt.DriveID,
		&punt.Season,
		&punt.Team,
		&punt.Opponent,
		&punt.Quarter,
		&punt.Clock,
		&punt.Territory,
		&punt.DownDistance,
		&punt.TeamScore,
		&punt.OpponentScore,
		&punt.SurrenderIndex,
		&punt.SeasonPercentile,
		&punt.HistoryPercentile,
		&punt.DelayOfGame,
		&punt.UnadjustedIndex,
		&punt.TweetID,
		&punt.NinetyTweetID,
		&punt.Canceled,
		&punt.DetectedAt,
	)
	if err != nil {
		return nil, err
	}
	return &punt, nil
}

// InsertHistoricalIndices loads archive values in one transaction, used by
// the backfill command.
func (s *Store) InsertHistoricalIndices(ctx context.Context, values map[int][]float64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO historical_indices (season, surrender_index) VALUES ($1, $2)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for season, indices := range values {
		for _, v := range indices {
			if _, err := stmt.ExecContext(ctx, season, v); err != nil {
				return 0, fmt.Errorf("failed to insert historical index: %w", err)
			}
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

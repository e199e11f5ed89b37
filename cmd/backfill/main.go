// Command backfill loads archived Surrender Index values into the
// historical_indices table. The archive seeds the "all punts since 1999"
// percentile, so it should be loaded once before the daemon first runs.
//
// The input is a CSV of either "season,surrender_index" rows, or bare index
// values combined with a -season flag. A header row is skipped.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/config"
	"github.com/andrew-shackelford/Surrender-Index/internal/store"
)

func main() {
	filePath := flag.String("file", "", "CSV file of archived Surrender Index values")
	season := flag.Int("season", 0, "Season the values belong to, for single-column files")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.Sugar()

	if *filePath == "" {
		logger.Fatalw("A -file argument is required")
	}

	values, err := readIndexFile(*filePath, *season)
	if err != nil {
		logger.Fatalw("Failed to read index file", "file", *filePath, "error", err)
	}

	cfg := config.Load()
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s := store.New(db)
	if err := s.InitSchema(ctx); err != nil {
		logger.Fatalw("Failed to initialize schema", "error", err)
	}

	inserted, err := s.InsertHistoricalIndices(ctx, values)
	if err != nil {
		logger.Fatalw("Failed to insert archive values", "error", err)
	}

	logger.Infow("Archive loaded",
		"file", *filePath,
		"seasons", len(values),
		"values", inserted)
}

// readIndexFile parses the archive CSV into values grouped by season.
func readIndexFile(path string, defaultSeason int) (map[int][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	values := make(map[int][]float64)
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		var (
			rowSeason int
			indexCol  string
		)
		switch len(record) {
		case 1:
			if defaultSeason == 0 {
				return nil, fmt.Errorf("line %d: single-column file requires -season", line)
			}
			rowSeason, indexCol = defaultSeason, record[0]
		case 2:
			rowSeason, err = strconv.Atoi(strings.TrimSpace(record[0]))
			if err != nil {
				if line == 1 {
					continue // header row
				}
				return nil, fmt.Errorf("line %d: bad season %q", line, record[0])
			}
			indexCol = record[1]
		default:
			return nil, fmt.Errorf("line %d: expected 1 or 2 columns, got %d", line, len(record))
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(indexCol), 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: bad index value %q", line, indexCol)
		}
		values[rowSeason] = append(values[rowSeason], v)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no index values found in %s", path)
	}

	return values, nil
}

// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package bias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	// DuckDB driver - read_csv does the CSV parsing and numeric coercion
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// ErrLoad wraps every failure to build the table. Startup treats it as fatal.
var ErrLoad = errors.New("bias: load failed")

// DefaultCriterion is the Tournesol criterion used for recommendability.
const DefaultCriterion = "largely_recommended"

// loadQuery reads the export with every column as text so malformed numbers
// become NULL via TRY_CAST instead of failing the whole file. The file path
// is spliced in as a literal because table function arguments cannot be
// bound parameters on every DuckDB release.
const loadQuery = `
SELECT video,
       TRY_CAST(score AS DOUBLE)       AS score,
       TRY_CAST(uncertainty AS DOUBLE) AS uncertainty
FROM read_csv(%s, header = true, all_varchar = true)
WHERE criteria = ? AND video IS NOT NULL AND video <> ''`

// LoadCSV reads a Tournesol CSV export (columns video, criteria, score,
// uncertainty) and keeps the rows for criterion. When a video appears more
// than once the last row wins.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func LoadCSV(ctx context.Context, path, criterion string, logger zerolog.Logger) (*Table, error) {
	if criterion == "" {
		criterion = DefaultCriterion
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	start := time.Now()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("%w: open duckdb: %w", ErrLoad, err)
	}
	defer db.Close() //nolint:errcheck // in-memory database, nothing to flush

	rows, err := db.QueryContext(ctx, fmt.Sprintf(loadQuery, quoteLiteral(path)), criterion)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrLoad, path, err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	var skipped int
	for rows.Next() {
		var (
			video       string
			score       sql.NullFloat64
			uncertainty sql.NullFloat64
		)
		if err := rows.Scan(&video, &score, &uncertainty); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", ErrLoad, err)
		}
		if !score.Valid {
			skipped++
		}
		entries[video] = Entry{
			Score:       score.Float64,
			Uncertainty: uncertainty.Float64,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrLoad, err)
	}

	logger.Info().
		Str("path", path).
		Str("criterion", criterion).
		Int("entries", len(entries)).
		Int("missing_score", skipped).
		Dur("took", time.Since(start)).
		Msg("Loaded recommendability table")

	return NewTable(criterion, entries), nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

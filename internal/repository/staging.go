package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boxoffice-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// StagingRepository holds raw feed rows keyed by (external_code,
// ranking_date). Rows are never deleted; ingestion is append-only and match
// outcomes are recorded exactly once per row.
type StagingRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStagingRepository(sqlDB *sql.DB, logger zerolog.Logger) *StagingRepository {
	return &StagingRepository{db: sqlDB, logger: logger}
}

// Stage inserts the row only if its key is absent, so re-ingesting a day
// never clobbers match outcomes already computed for it. Returns whether a
// new row was written.
func (r *StagingRepository) Stage(ctx context.Context, entry domain.StagedRanking) (bool, error) {
	var releaseDate sql.NullString
	if entry.ReleaseDate != nil {
		releaseDate = sql.NullString{String: formatDate(*entry.ReleaseDate), Valid: true}
	}

	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO staged_rankings
		 (external_code, ranking_date, display_name, release_date, rank, audience, matched, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		entry.ExternalCode, formatDate(entry.RankingDate), entry.DisplayName, releaseDate,
		entry.Rank, entry.Audience, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to stage ranking row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read staging result: %w", err)
	}
	return affected > 0, nil
}

const stagedColumns = "external_code, ranking_date, display_name, release_date, rank, audience, matched, matched_movie_id, match_method, created_at, updated_at"

func (r *StagingRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.StagedRanking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+stagedColumns+" FROM staged_rankings WHERE ranking_date = ? ORDER BY rank", formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list staged rankings: %w", err)
	}
	defer rows.Close()
	return collectStaged(rows)
}

// RecordOutcome marks the row processed. It always sets matched=1 — an
// unresolved result (nil movie id) is a terminal outcome, recorded so the row
// is never re-attempted.
func (r *StagingRepository) RecordOutcome(ctx context.Context, externalCode string, date time.Time, result domain.MatchResult) error {
	var movieID sql.NullInt64
	if result.MovieID != nil {
		movieID = sql.NullInt64{Int64: *result.MovieID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE staged_rankings
		 SET matched = 1, matched_movie_id = ?, match_method = ?, updated_at = ?
		 WHERE external_code = ? AND ranking_date = ?`,
		movieID, string(result.Method), time.Now(), externalCode, formatDate(date))
	if err != nil {
		return fmt.Errorf("failed to record match outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read outcome result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no staged row for code %s on %s", externalCode, formatDate(date))
	}
	return nil
}

// LatestDate returns the most recent staged reporting date, or the zero time
// when nothing is staged.
func (r *StagingRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(ranking_date) FROM staged_rankings").Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest staged date: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, nil
	}
	return parseDate(raw.String)
}

// UnresolvedNames lists the distinct feed titles that stayed unresolved after
// matching, for operator review.
func (r *StagingRepository) UnresolvedNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT display_name FROM staged_rankings
		 WHERE matched = 1 AND matched_movie_id IS NULL
		 ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *StagingRepository) Stats(ctx context.Context) (domain.StagingStats, error) {
	var stats domain.StagingStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(matched), 0),
		        COALESCE(SUM(CASE WHEN matched = 1 AND matched_movie_id IS NULL THEN 1 ELSE 0 END), 0)
		 FROM staged_rankings`).Scan(&stats.Total, &stats.Processed, &stats.Unresolved)
	if err != nil {
		return domain.StagingStats{}, fmt.Errorf("failed to query staging stats: %w", err)
	}
	return stats, nil
}

func collectStaged(rows *sql.Rows) ([]domain.StagedRanking, error) {
	var entries []domain.StagedRanking
	for rows.Next() {
		var e domain.StagedRanking
		var rankingDate string
		var releaseDate sql.NullString
		var movieID sql.NullInt64
		var method sql.NullString
		if err := rows.Scan(&e.ExternalCode, &rankingDate, &e.DisplayName, &releaseDate, &e.Rank,
			&e.Audience, &e.Matched, &movieID, &method, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		date, err := parseDate(rankingDate)
		if err != nil {
			return nil, fmt.Errorf("bad ranking_date in staging row: %w", err)
		}
		e.RankingDate = date
		if releaseDate.Valid {
			release, err := parseDate(releaseDate.String)
			if err == nil {
				e.ReleaseDate = &release
			}
		}
		if movieID.Valid {
			e.MatchedMovieID = &movieID.Int64
		}
		if method.Valid {
			e.MatchMethod = domain.MatchMethod(method.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boxoffice-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RankingRepository is the authoritative promoted table, keyed by
// (movie_id, ranking_date).
type RankingRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRankingRepository(sqlDB *sql.DB, logger zerolog.Logger) *RankingRepository {
	return &RankingRepository{db: sqlDB, logger: logger}
}

// Promote writes the (movie, date) pair with an atomic insert-if-absent, so
// concurrent reconciliation runs of the same date cannot double-promote.
// Returns whether a new row was written.
func (r *RankingRepository) Promote(ctx context.Context, movieID int64, date time.Time, rank int, audience int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO movie_rankings (movie_id, ranking_date, rank, audience, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		movieID, formatDate(date), rank, audience, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to promote ranking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read promotion result: %w", err)
	}
	return affected > 0, nil
}

// ListByDate returns promoted rows for the date joined with catalog details,
// ordered by rank.
func (r *RankingRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.CurrentRanking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT mr.movie_id, mr.rank, mr.audience, mr.ranking_date,
		        m.title, m.poster_url, m.release_date, m.vote_average
		 FROM movie_rankings mr
		 JOIN movies m ON m.movie_id = mr.movie_id
		 WHERE mr.ranking_date = ?
		 ORDER BY mr.rank`, formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	var result []domain.CurrentRanking
	for rows.Next() {
		var cr domain.CurrentRanking
		var movieID int64
		var rankingDate string
		if err := rows.Scan(&movieID, &cr.Rank, &cr.Audience, &rankingDate,
			&cr.Title, &cr.PosterURL, &cr.ReleaseDate, &cr.VoteAverage); err != nil {
			return nil, err
		}
		parsed, err := parseDate(rankingDate)
		if err != nil {
			return nil, fmt.Errorf("bad ranking_date in ranking row: %w", err)
		}
		cr.RankingDate = parsed
		cr.MovieID = &movieID
		cr.Resolved = true
		result = append(result, cr)
	}
	return result, rows.Err()
}

// LatestDate returns the most recent promoted reporting date, or the zero
// time when the table is empty.
func (r *RankingRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(ranking_date) FROM movie_rankings").Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest ranking date: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, nil
	}
	return parseDate(raw.String)
}

func (r *RankingRepository) RecentDates(ctx context.Context, limit int) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT ranking_date FROM movie_rankings ORDER BY ranking_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent ranking dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

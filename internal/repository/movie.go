package repository

import (
	"context"
	"database/sql"
	"fmt"

	"boxoffice-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// MovieRepository reads the movie catalog. This service never writes it; the
// catalog is maintained by a separate import pipeline.
type MovieRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMovieRepository(sqlDB *sql.DB, logger zerolog.Logger) *MovieRepository {
	return &MovieRepository{db: sqlDB, logger: logger}
}

const movieColumns = "movie_id, title, release_date, overview, vote_average, poster_url, tmdb_id, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (*domain.Movie, error) {
	var m domain.Movie
	var tmdbID sql.NullInt64
	if err := row.Scan(&m.MovieID, &m.Title, &m.ReleaseDate, &m.Overview, &m.VoteAverage, &m.PosterURL, &tmdbID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if tmdbID.Valid {
		m.TmdbID = &tmdbID.Int64
	}
	return &m, nil
}

// GetByTitle returns the catalog entry whose title matches exactly, or nil.
func (r *MovieRepository) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE title = ? ORDER BY movie_id LIMIT 1", title)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movie by title: %w", err)
	}
	return m, nil
}

func (r *MovieRepository) FindByTitleContaining(ctx context.Context, title string, limit int) ([]domain.Movie, error) {
	pattern := "%" + title + "%"
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE title LIKE ? ORDER BY movie_id LIMIT ?", pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies by title substring: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

// FindByTitleAndYearRange narrows the substring match to catalog entries whose
// release year falls in [startYear, endYear].
func (r *MovieRepository) FindByTitleAndYearRange(ctx context.Context, title string, startYear, endYear int, limit int) ([]domain.Movie, error) {
	pattern := "%" + title + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies
		 WHERE title LIKE ? AND substr(release_date, 1, 4) BETWEEN ? AND ?
		 ORDER BY movie_id LIMIT ?`,
		pattern, fmt.Sprintf("%04d", startYear), fmt.Sprintf("%04d", endYear), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies by title and year range: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

func (r *MovieRepository) GetByID(ctx context.Context, movieID int64) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE movie_id = ?", movieID)
	m, err := scanMovie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movie by id: %w", err)
	}
	return m, nil
}

// List pages through the catalog in movie_id order, for the index rebuild.
func (r *MovieRepository) List(ctx context.Context, afterID int64, limit int) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE movie_id > ? ORDER BY movie_id LIMIT ?", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()
	return collectMovies(rows)
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

func collectMovies(rows *sql.Rows) ([]domain.Movie, error) {
	var movies []domain.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

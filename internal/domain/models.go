package domain

import (
	"strconv"
	"time"
)

// Movie is a catalog entry. The catalog is read-only from this service's
// perspective; it is populated by a separate import pipeline.
type Movie struct {
	MovieID     int64
	Title       string
	ReleaseDate string // YYYY-MM-DD, may be empty
	Overview    string
	VoteAverage float64
	PosterURL   string
	TmdbID      *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReleaseYear returns the four-digit year prefix of ReleaseDate, or 0.
func (m Movie) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// StagedRanking is one raw feed row for one day, keyed by
// (ExternalCode, RankingDate).
//
// Matched=false means the row has not been processed yet. Matched=true with a
// nil MatchedMovieID means the row was processed but could not be resolved to
// a catalog entry; that state is terminal and the row is never re-attempted.
type StagedRanking struct {
	ExternalCode   string
	RankingDate    time.Time
	DisplayName    string
	ReleaseDate    *time.Time
	Rank           int
	Audience       int64
	Matched        bool
	MatchedMovieID *int64
	MatchMethod    MatchMethod
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Unresolved reports whether the row was processed without finding a catalog
// entry.
func (s StagedRanking) Unresolved() bool {
	return s.Matched && s.MatchedMovieID == nil
}

// RankingRow is one promoted (movie, date) pair in the authoritative table.
type RankingRow struct {
	MovieID     int64
	RankingDate time.Time
	Rank        int
	Audience    int64
	CreatedAt   time.Time
}

type MatchMethod string

const (
	MatchExactTitle     MatchMethod = "exact-title"
	MatchTitleYear      MatchMethod = "title+year"
	MatchTitleDateRange MatchMethod = "title+date-range"
	MatchIndexExact     MatchMethod = "index-exact"
	MatchIndexSubstring MatchMethod = "index-substring"
	MatchIndexFuzzy     MatchMethod = "index-fuzzy"
	MatchUnresolved     MatchMethod = "unmatched"
)

// MatchResult is the transient outcome of matching one staged row. A nil
// MovieID means the row stays unresolved; that is a valid terminal outcome,
// not an error.
type MatchResult struct {
	MovieID            *int64
	Confidence         float64
	Method             MatchMethod
	MatchedTitle       string
	MatchedReleaseDate string
}

func (r MatchResult) Resolved() bool {
	return r.MovieID != nil
}

// CurrentRanking is one row of the user-facing ranking view. Unresolved rows
// keep their original feed title and carry no catalog link.
type CurrentRanking struct {
	MovieID     *int64
	Title       string
	PosterURL   string
	Rank        int
	Audience    int64
	RankingDate time.Time
	ReleaseDate string
	VoteAverage float64
	Resolved    bool
}

type StagingStats struct {
	Total      int64
	Processed  int64
	Unresolved int64
}

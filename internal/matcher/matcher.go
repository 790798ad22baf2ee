// Package matcher resolves staged feed rows to catalog entries through an
// ordered cascade of lookup tiers. The first tier producing a candidate wins;
// a tier that errors counts as a miss and the cascade moves on.
package matcher

import (
	"context"

	"boxoffice-tracker/internal/domain"
	"boxoffice-tracker/internal/search"

	"github.com/rs/zerolog"
)

// Catalog is the read-only slice of the movie store the cascade needs.
type Catalog interface {
	GetByTitle(ctx context.Context, title string) (*domain.Movie, error)
	FindByTitleAndYearRange(ctx context.Context, title string, startYear, endYear int, limit int) ([]domain.Movie, error)
}

// Index is the black-box full-text lookup, consulted only after the direct
// catalog tiers miss: its recall is higher but its precision is unverified.
type Index interface {
	ExactPhrase(ctx context.Context, title string) (*search.Document, error)
	Substring(ctx context.Context, title string) (*search.Document, error)
	Fuzzy(ctx context.Context, title string) (*search.Document, error)
}

// Config collects the knobs that used to be scattered literals: per-tier
// confidence scores and the year tolerance for regional release-date skew.
type Config struct {
	ExactTitleScore float64
	TitleYearScore  float64
	IndexScore      float64
	YearSkew        int
	CandidateLimit  int
}

func DefaultConfig() Config {
	return Config{
		ExactTitleScore: 0.9,
		TitleYearScore:  0.8,
		IndexScore:      1.0,
		YearSkew:        1,
		CandidateLimit:  5,
	}
}

type tier struct {
	name string
	run  func(ctx context.Context, entry domain.StagedRanking) (*domain.MatchResult, error)
}

type Matcher struct {
	catalog Catalog
	index   Index
	cfg     Config
	logger  zerolog.Logger
	tiers   []tier
}

func New(catalog Catalog, index Index, cfg Config, logger zerolog.Logger) *Matcher {
	m := &Matcher{catalog: catalog, index: index, cfg: cfg, logger: logger}
	m.tiers = []tier{
		{name: "exact-title", run: m.exactTitle},
		{name: "title-release-year", run: m.titleReleaseYear},
		{name: "search-index", run: m.searchIndex},
	}
	return m
}

// Match runs the cascade for one staged row. It never fails: when every tier
// misses or errors, the row stays unresolved, which is a valid terminal
// outcome the caller must still record.
func (m *Matcher) Match(ctx context.Context, entry domain.StagedRanking) domain.MatchResult {
	for _, t := range m.tiers {
		result, err := t.run(ctx, entry)
		if err != nil {
			m.logger.Warn().
				Err(err).
				Str("tier", t.name).
				Str("title", entry.DisplayName).
				Msg("match tier failed, treating as miss")
			continue
		}
		if result != nil {
			m.logger.Debug().
				Str("tier", t.name).
				Str("title", entry.DisplayName).
				Str("method", string(result.Method)).
				Str("matched_title", result.MatchedTitle).
				Msg("match tier hit")
			return *result
		}
	}

	m.logger.Info().Str("title", entry.DisplayName).Msg("no tier matched, leaving unresolved")
	return unresolvedResult(entry)
}

func (m *Matcher) exactTitle(ctx context.Context, entry domain.StagedRanking) (*domain.MatchResult, error) {
	movie, err := m.catalog.GetByTitle(ctx, entry.DisplayName)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, nil
	}
	return movieResult(movie, m.cfg.ExactTitleScore, domain.MatchExactTitle), nil
}

// titleReleaseYear only applies when the feed reported a release date. The
// exact reported year is tried first; the ±skew window catches regional
// release-date drift.
func (m *Matcher) titleReleaseYear(ctx context.Context, entry domain.StagedRanking) (*domain.MatchResult, error) {
	if entry.ReleaseDate == nil {
		return nil, nil
	}
	year := entry.ReleaseDate.Year()

	movies, err := m.catalog.FindByTitleAndYearRange(ctx, entry.DisplayName, year, year, m.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 {
		return movieResult(&movies[0], m.cfg.TitleYearScore, domain.MatchTitleYear), nil
	}

	movies, err = m.catalog.FindByTitleAndYearRange(ctx, entry.DisplayName, year-m.cfg.YearSkew, year+m.cfg.YearSkew, m.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 {
		return movieResult(&movies[0], m.cfg.TitleYearScore, domain.MatchTitleDateRange), nil
	}
	return nil, nil
}

func (m *Matcher) searchIndex(ctx context.Context, entry domain.StagedRanking) (*domain.MatchResult, error) {
	lookups := []struct {
		method domain.MatchMethod
		run    func(context.Context, string) (*search.Document, error)
	}{
		{domain.MatchIndexExact, m.index.ExactPhrase},
		{domain.MatchIndexSubstring, m.index.Substring},
		{domain.MatchIndexFuzzy, m.index.Fuzzy},
	}
	for _, lookup := range lookups {
		doc, err := lookup.run(ctx, entry.DisplayName)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return docResult(doc, m.cfg.IndexScore, lookup.method), nil
		}
	}
	return nil, nil
}

func movieResult(movie *domain.Movie, confidence float64, method domain.MatchMethod) *domain.MatchResult {
	id := movie.MovieID
	return &domain.MatchResult{
		MovieID:            &id,
		Confidence:         confidence,
		Method:             method,
		MatchedTitle:       movie.Title,
		MatchedReleaseDate: movie.ReleaseDate,
	}
}

func docResult(doc *search.Document, confidence float64, method domain.MatchMethod) *domain.MatchResult {
	id := doc.MovieID
	return &domain.MatchResult{
		MovieID:            &id,
		Confidence:         confidence,
		Method:             method,
		MatchedTitle:       doc.Title,
		MatchedReleaseDate: doc.ReleaseDate,
	}
}

func unresolvedResult(entry domain.StagedRanking) domain.MatchResult {
	result := domain.MatchResult{
		Confidence:   0,
		Method:       domain.MatchUnresolved,
		MatchedTitle: entry.DisplayName,
	}
	if entry.ReleaseDate != nil {
		result.MatchedReleaseDate = entry.ReleaseDate.Format("2006-01-02")
	}
	return result
}

package service

import (
	"context"
	"time"

	"boxoffice-tracker/internal/domain"
	"boxoffice-tracker/internal/repository"

	"github.com/rs/zerolog"
)

// RankingService is the read side: current rankings from the promoted table,
// degrading to a staging-derived view when promotion has not happened yet.
type RankingService struct {
	ranking *repository.RankingRepository
	staging *repository.StagingRepository
	movies  *repository.MovieRepository
	logger  zerolog.Logger
}

func NewRankingService(ranking *repository.RankingRepository, staging *repository.StagingRepository, movies *repository.MovieRepository, logger zerolog.Logger) *RankingService {
	return &RankingService{ranking: ranking, staging: staging, movies: movies, logger: logger}
}

// Current returns the most recent ranking view. Resolution order: latest
// promoted date, then the latest staged date synthesized from staging rows.
// Unresolved rows are kept in the fallback view with their original feed
// title, not omitted.
func (s *RankingService) Current(ctx context.Context) ([]domain.CurrentRanking, error) {
	latest, err := s.ranking.LatestDate(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve latest ranking date, falling back to staging")
	} else if !latest.IsZero() {
		rows, err := s.ranking.ListByDate(ctx, latest)
		if err != nil {
			s.logger.Error().Err(err).Time("date", latest).Msg("failed to read promoted rankings, falling back to staging")
		} else if len(rows) > 0 {
			return rows, nil
		}
	}
	return s.currentFromStaging(ctx)
}

// ByDate returns the ranking view for one date, promoted rows first, staging
// fallback when the date has not been promoted.
func (s *RankingService) ByDate(ctx context.Context, date time.Time) ([]domain.CurrentRanking, error) {
	rows, err := s.ranking.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error().Err(err).Time("date", date).Msg("failed to read promoted rankings, falling back to staging")
	} else if len(rows) > 0 {
		return rows, nil
	}
	return s.fromStagingByDate(ctx, date)
}

func (s *RankingService) RecentDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.ranking.RecentDates(ctx, limit)
}

func (s *RankingService) currentFromStaging(ctx context.Context) ([]domain.CurrentRanking, error) {
	latest, err := s.staging.LatestDate(ctx)
	if err != nil {
		return nil, err
	}
	if latest.IsZero() {
		return []domain.CurrentRanking{}, nil
	}
	return s.fromStagingByDate(ctx, latest)
}

func (s *RankingService) fromStagingByDate(ctx context.Context, date time.Time) ([]domain.CurrentRanking, error) {
	staged, err := s.staging.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	result := make([]domain.CurrentRanking, 0, len(staged))
	for _, entry := range staged {
		if entry.Matched && entry.MatchedMovieID != nil {
			movie, err := s.movies.GetByID(ctx, *entry.MatchedMovieID)
			if err != nil {
				s.logger.Warn().Err(err).Int64("movie_id", *entry.MatchedMovieID).Msg("failed to load matched movie for staging view")
			}
			if movie != nil {
				id := movie.MovieID
				result = append(result, domain.CurrentRanking{
					MovieID:     &id,
					Title:       movie.Title,
					PosterURL:   movie.PosterURL,
					Rank:        entry.Rank,
					Audience:    entry.Audience,
					RankingDate: entry.RankingDate,
					ReleaseDate: movie.ReleaseDate,
					VoteAverage: movie.VoteAverage,
					Resolved:    true,
				})
				continue
			}
		}

		unresolved := domain.CurrentRanking{
			Title:       entry.DisplayName,
			Rank:        entry.Rank,
			Audience:    entry.Audience,
			RankingDate: entry.RankingDate,
			Resolved:    false,
		}
		if entry.ReleaseDate != nil {
			unresolved.ReleaseDate = entry.ReleaseDate.Format("2006-01-02")
		}
		result = append(result, unresolved)
	}
	return result, nil
}

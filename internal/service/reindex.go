package service

import (
	"context"

	"boxoffice-tracker/internal/constants"
	"boxoffice-tracker/internal/domain"
	"boxoffice-tracker/internal/repository"
	"boxoffice-tracker/internal/search"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ReindexService rebuilds the search index from the full catalog. Documents
// are keyed by movie id, so a rebuild upserts in place.
type ReindexService struct {
	movies *repository.MovieRepository
	index  *search.MovieIndex
	logger zerolog.Logger
}

func NewReindexService(movies *repository.MovieRepository, index *search.MovieIndex, logger zerolog.Logger) *ReindexService {
	return &ReindexService{movies: movies, index: index, logger: logger}
}

// Rebuild pages through the catalog and feeds the index in batches. Returns
// the number of documents indexed.
func (s *ReindexService) Rebuild(ctx context.Context) (int, error) {
	total, err := s.movies.Count(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("movies", total).Msg("search index rebuild starting")

	g, ctx := errgroup.WithContext(ctx)
	pages := make(chan []domain.Movie)

	g.Go(func() error {
		defer close(pages)
		afterID := int64(0)
		for {
			page, err := s.movies.List(ctx, afterID, constants.ReindexPageSize)
			if err != nil {
				return err
			}
			if len(page) == 0 {
				return nil
			}
			afterID = page[len(page)-1].MovieID
			select {
			case pages <- page:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	indexed := 0
	g.Go(func() error {
		for page := range pages {
			for start := 0; start < len(page); start += constants.ReindexBatchSize {
				end := start + constants.ReindexBatchSize
				if end > len(page) {
					end = len(page)
				}
				if err := s.index.IndexMovies(page[start:end]); err != nil {
					return err
				}
				indexed += end - start
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return indexed, err
	}

	s.logger.Info().Int("indexed", indexed).Msg("search index rebuild complete")
	return indexed, nil
}

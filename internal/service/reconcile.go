package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"boxoffice-tracker/internal/api"
	"boxoffice-tracker/internal/constants"
	"boxoffice-tracker/internal/domain"
	"boxoffice-tracker/internal/matcher"
	"boxoffice-tracker/internal/repository"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// FeedClient fetches one day's ranking feed from the external provider.
type FeedClient interface {
	FetchDailyBoxOffice(ctx context.Context, date time.Time) (*api.DailyBoxOfficeResponse, error)
}

// Summary aggregates one reconciliation run. Per-row failures are counted
// here, never propagated as a batch error.
type Summary struct {
	Date       time.Time
	Staged     int
	Skipped    int
	Total      int
	Matched    int
	Unresolved int
	Promoted   int
	Failed     int
}

type ReconcileService struct {
	feed    FeedClient
	staging *repository.StagingRepository
	ranking *repository.RankingRepository
	matcher *matcher.Matcher
	logger  zerolog.Logger
}

func NewReconcileService(feed FeedClient, staging *repository.StagingRepository, ranking *repository.RankingRepository, m *matcher.Matcher, logger zerolog.Logger) *ReconcileService {
	return &ReconcileService{feed: feed, staging: staging, ranking: ranking, matcher: m, logger: logger}
}

// Ingest fetches the provider feed for the date and stages it. Transient
// provider failures are retried with a flat backoff; permanent ones
// (malformed payload, client errors) are not. Returns staged and skipped row
// counts.
func (s *ReconcileService) Ingest(ctx context.Context, date time.Time) (int, int, error) {
	var payload *api.DailyBoxOfficeResponse

	backoff := retry.WithMaxRetries(constants.FeedRetryAttempts, retry.NewConstant(constants.FeedRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()

		fetched, err := s.feed.FetchDailyBoxOffice(attemptCtx, date)
		if err != nil {
			if errors.Is(err, api.ErrProviderUnavailable) {
				s.logger.Warn().Err(err).Time("date", date).Msg("provider unavailable, will retry")
				return retry.RetryableError(err)
			}
			return err
		}
		payload = fetched
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch daily box office: %w", err)
	}

	reportingDate, err := payload.ReportingDate()
	if err != nil {
		return 0, 0, err
	}

	staged, skipped := 0, 0
	for _, row := range payload.BoxOfficeResult.DailyBoxOfficeList {
		entry, ok := s.toStagedEntry(row, reportingDate)
		if !ok {
			skipped++
			continue
		}
		inserted, err := s.staging.Stage(ctx, entry)
		if err != nil {
			s.logger.Error().Err(err).Str("code", row.MovieCd).Msg("failed to stage feed row")
			skipped++
			continue
		}
		if inserted {
			staged++
			s.logger.Info().
				Int("rank", entry.Rank).
				Str("title", entry.DisplayName).
				Str("code", entry.ExternalCode).
				Msg("feed row staged")
		}
	}

	s.logger.Info().
		Time("date", reportingDate).
		Int("staged", staged).
		Int("skipped", skipped).
		Msg("feed ingestion complete")
	return staged, skipped, nil
}

// toStagedEntry parses one provider row. Unparseable rank or audience makes
// the row unusable and it is skipped; a malformed release date is tolerated
// and left empty.
func (s *ReconcileService) toStagedEntry(row api.BoxOfficeEntry, date time.Time) (domain.StagedRanking, bool) {
	rank, err := strconv.Atoi(strings.TrimSpace(row.Rank))
	if err != nil || rank < 1 {
		s.logger.Warn().Str("code", row.MovieCd).Str("rank", row.Rank).Msg("skipping row with bad rank")
		return domain.StagedRanking{}, false
	}
	audience, err := parseCount(row.AudiAcc)
	if err != nil || audience < 0 {
		s.logger.Warn().Str("code", row.MovieCd).Str("audience", row.AudiAcc).Msg("skipping row with bad audience")
		return domain.StagedRanking{}, false
	}

	entry := domain.StagedRanking{
		ExternalCode: row.MovieCd,
		RankingDate:  date,
		DisplayName:  row.MovieNm,
		Rank:         rank,
		Audience:     audience,
	}
	if row.OpenDt != "" {
		release, err := time.Parse("2006-01-02", row.OpenDt)
		if err != nil {
			s.logger.Warn().Str("code", row.MovieCd).Str("open_dt", row.OpenDt).Msg("ignoring malformed release date")
		} else {
			entry.ReleaseDate = &release
		}
	}
	return entry, true
}

// Reconcile drives one date end to end: stage the feed if nothing is staged
// yet, match every unprocessed row, record every outcome (unresolved
// included, so a row is never re-attempted), and promote resolved rows.
func (s *ReconcileService) Reconcile(ctx context.Context, date time.Time) (Summary, error) {
	summary := Summary{Date: date}

	rows, err := s.staging.ListByDate(ctx, date)
	if err != nil {
		return summary, err
	}
	if len(rows) == 0 {
		staged, skipped, err := s.Ingest(ctx, date)
		if err != nil {
			return summary, err
		}
		summary.Staged = staged
		summary.Skipped = skipped

		rows, err = s.staging.ListByDate(ctx, date)
		if err != nil {
			return summary, err
		}
	}

	for _, row := range rows {
		summary.Total++

		result, processed := s.outcomeFor(ctx, row, &summary)
		if !processed {
			continue
		}
		if result.MovieID == nil {
			summary.Unresolved++
			continue
		}
		summary.Matched++

		promoted, err := s.ranking.Promote(ctx, *result.MovieID, date, row.Rank, row.Audience)
		if err != nil {
			s.logger.Error().Err(err).Str("title", row.DisplayName).Int64("movie_id", *result.MovieID).Msg("promotion failed")
			summary.Failed++
			continue
		}
		if promoted {
			summary.Promoted++
			s.logger.Info().
				Int("rank", row.Rank).
				Str("title", result.MatchedTitle).
				Int64("movie_id", *result.MovieID).
				Msg("ranking promoted")
		}
	}

	s.logger.Info().
		Time("date", date).
		Int("total", summary.Total).
		Int("matched", summary.Matched).
		Int("unresolved", summary.Unresolved).
		Int("promoted", summary.Promoted).
		Int("failed", summary.Failed).
		Msg("reconciliation complete")
	return summary, nil
}

// outcomeFor returns the row's match result, invoking the matcher only for
// rows not yet processed. Already-processed rows keep their recorded outcome;
// resolved ones still flow to promotion, which is idempotent.
func (s *ReconcileService) outcomeFor(ctx context.Context, row domain.StagedRanking, summary *Summary) (domain.MatchResult, bool) {
	if row.Matched {
		return domain.MatchResult{MovieID: row.MatchedMovieID, Method: row.MatchMethod, MatchedTitle: row.DisplayName}, true
	}

	result := s.matcher.Match(ctx, row)
	s.logger.Info().
		Str("title", row.DisplayName).
		Str("method", string(result.Method)).
		Float64("confidence", result.Confidence).
		Str("matched_title", result.MatchedTitle).
		Msg("match result")

	if err := s.staging.RecordOutcome(ctx, row.ExternalCode, row.RankingDate, result); err != nil {
		s.logger.Error().Err(err).Str("title", row.DisplayName).Msg("failed to record match outcome")
		summary.Failed++
		return domain.MatchResult{}, false
	}
	return result, true
}

// ReconcileYesterday is the scheduled entry point.
func (s *ReconcileService) ReconcileYesterday(ctx context.Context) (Summary, error) {
	return s.Reconcile(ctx, time.Now().AddDate(0, 0, -1))
}

func parseCount(value string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return 0, nil
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

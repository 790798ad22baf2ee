package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"boxoffice-tracker/internal/constants"
	"boxoffice-tracker/internal/domain"
	"boxoffice-tracker/internal/repository"
	"boxoffice-tracker/internal/service"

	"github.com/rs/zerolog"
)

const dateQueryLayout = "2006-01-02"

type Server struct {
	reconcileSvc *service.ReconcileService
	rankingSvc   *service.RankingService
	reindexSvc   *service.ReindexService
	staging      *repository.StagingRepository
	logger       zerolog.Logger
}

func NewServer(reconcileSvc *service.ReconcileService, rankingSvc *service.RankingService, reindexSvc *service.ReindexService, staging *repository.StagingRepository, logger zerolog.Logger) *Server {
	return &Server{
		reconcileSvc: reconcileSvc,
		rankingSvc:   rankingSvc,
		reindexSvc:   reindexSvc,
		staging:      staging,
		logger:       logger,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rankings/current", s.handleCurrentRankings)
	mux.HandleFunc("GET /api/rankings", s.handleRankingsByDate)
	mux.HandleFunc("GET /api/rankings/dates", s.handleRecentDates)
	mux.HandleFunc("POST /api/admin/reconcile", s.handleReconcile)
	mux.HandleFunc("POST /api/admin/reindex", s.handleReindex)
	mux.HandleFunc("GET /api/admin/staging/unresolved", s.handleUnresolved)
	mux.HandleFunc("GET /api/admin/staging/stats", s.handleStagingStats)
}

type rankingRowResponse struct {
	MovieID     *int64  `json:"movie_id,omitempty"`
	Title       string  `json:"title"`
	PosterURL   string  `json:"poster_url,omitempty"`
	Rank        int     `json:"rank"`
	Audience    int64   `json:"audience"`
	RankingDate string  `json:"ranking_date"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Resolved    bool    `json:"resolved"`
}

func toRankingResponse(rows []domain.CurrentRanking) []rankingRowResponse {
	resp := make([]rankingRowResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, rankingRowResponse{
			MovieID:     row.MovieID,
			Title:       row.Title,
			PosterURL:   row.PosterURL,
			Rank:        row.Rank,
			Audience:    row.Audience,
			RankingDate: row.RankingDate.Format(dateQueryLayout),
			ReleaseDate: row.ReleaseDate,
			VoteAverage: row.VoteAverage,
			Resolved:    row.Resolved,
		})
	}
	return resp
}

func (s *Server) handleCurrentRankings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	rows, err := s.rankingSvc.Current(ctx)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load rankings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"rankings": toRankingResponse(rows)})
}

func (s *Server) handleRankingsByDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateQueryLayout, r.URL.Query().Get("date"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	rows, err := s.rankingSvc.ByDate(ctx, date)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load rankings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"rankings": toRankingResponse(rows)})
}

func (s *Server) handleRecentDates(w http.ResponseWriter, r *http.Request) {
	limit := constants.RecentDatesDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = parsed
	}
	if limit > constants.RecentDatesMaxLimit {
		limit = constants.RecentDatesMaxLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	dates, err := s.rankingSvc.RecentDates(ctx, limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load ranking dates", err)
		return
	}
	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format(dateQueryLayout))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"dates": formatted})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	date := time.Now().AddDate(0, 0, -1)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateQueryLayout, raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.ReconcileTimeout)
	defer cancel()

	summary, err := s.reconcileSvc.Reconcile(ctx, date)
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "reconciliation failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":       summary.Date.Format(dateQueryLayout),
		"staged":     summary.Staged,
		"skipped":    summary.Skipped,
		"total":      summary.Total,
		"matched":    summary.Matched,
		"unresolved": summary.Unresolved,
		"promoted":   summary.Promoted,
		"failed":     summary.Failed,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.ReindexTimeout)
	defer cancel()

	indexed, err := s.reindexSvc.Rebuild(ctx)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "reindex failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"indexed": indexed})
}

func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	names, err := s.staging.UnresolvedNames(ctx)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load unresolved titles", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"titles": names})
}

func (s *Server) handleStagingStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	stats, err := s.staging.Stats(ctx)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load staging stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total":      stats.Total,
		"processed":  stats.Processed,
		"unresolved": stats.Unresolved,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg(message)
	s.writeJSON(w, status, map[string]string{"error": message})
}

package fx

import (
	"boxoffice-tracker/internal/api"
	"boxoffice-tracker/internal/config"
	"boxoffice-tracker/internal/database"
	"boxoffice-tracker/internal/logger"
	"boxoffice-tracker/internal/matcher"
	"boxoffice-tracker/internal/repository"
	"boxoffice-tracker/internal/search"
	"boxoffice-tracker/internal/server"
	"boxoffice-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideMatcher(movies *repository.MovieRepository, index *search.MovieIndex, log zerolog.Logger) *matcher.Matcher {
	return matcher.New(movies, index, matcher.DefaultConfig(), log)
}

func ProvideReconcileService(client *api.KobisClient, staging *repository.StagingRepository, ranking *repository.RankingRepository, m *matcher.Matcher, log zerolog.Logger) *service.ReconcileService {
	return service.NewReconcileService(client, staging, ranking, m, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(search.Open),
	// repos
	fx.Provide(repository.NewMovieRepository),
	fx.Provide(repository.NewStagingRepository),
	fx.Provide(repository.NewRankingRepository),
	// api client
	fx.Provide(api.NewKobisClient),
	// svc
	fx.Provide(ProvideMatcher),
	fx.Provide(ProvideReconcileService),
	fx.Provide(service.NewRankingService),
	fx.Provide(service.NewReindexService),
	// server
	fx.Provide(server.NewServer),
)

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	KobisAPIKey  string
	KobisBaseURL string
	DBPath       string
	IndexPath    string
	ServerPort   string
	LogLevel     string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		KobisAPIKey:  getEnv("KOBIS_API_KEY", ""),
		KobisBaseURL: getEnv("KOBIS_BASE_URL", "https://kobis.or.kr/kobisopenapi/webservice/rest/boxoffice/searchDailyBoxOfficeList.json"),
		DBPath:       getEnv("DB_PATH", "boxoffice.db"),
		IndexPath:    getEnv("INDEX_PATH", "boxoffice.bleve"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.KobisAPIKey == "" {
		return nil, fmt.Errorf("KOBIS_API_KEY is required")
	}

	logger.Info().
		Str("kobis_base_url", cfg.KobisBaseURL).
		Str("db_path", cfg.DBPath).
		Str("index_path", cfg.IndexPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)

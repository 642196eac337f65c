package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// MaxProviderPage is the highest listing page TMDb serves.
const MaxProviderPage = 500

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port               string
	TMDBAPIKey         string
	TMDBURL            string
	TMDBImageBaseURL   string
	TMDBTimeoutSecs    int
	TMDBMaxPage        int
	RandomSeed         int64
	StoreDriver        string
	DBURL              string
	MongoURI           string
	MongoDatabase      string
	CORSAllowedOrigins []string
	RequestTimeoutSecs int
	ReadTimeoutSecs    int
	WriteTimeoutSecs   int
	IdleTimeoutSecs    int
	DBMaxConns         int
	DBMinConns         int
	DBMaxIdleSecs      int
	DBMaxLifeSecs      int
	DBConnTimeoutSecs  int
	DBStatementCache   int
}

// Load reads configuration from environment variables, applying defaults and validation.
// Variables from a .env file (or ENV_FILE) fill in anything not already set.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:               getEnv("PORT", "5001"),
		TMDBAPIKey:         os.Getenv("TMDB_API_KEY"),
		TMDBURL:            getEnv("TMDB_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL:   getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		TMDBTimeoutSecs:    getEnvInt("TMDB_TIMEOUT_SECS", 5),
		TMDBMaxPage:        getEnvInt("TMDB_MAX_PAGE", MaxProviderPage),
		RandomSeed:         int64(getEnvInt("RANDOM_SEED", 0)),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBURL:              os.Getenv("DB_URL"),
		MongoURI:           os.Getenv("MONGODB_URI"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "budget_game"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RequestTimeoutSecs: getEnvInt("REQUEST_TIMEOUT_SECS", 30),
		ReadTimeoutSecs:    getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:   getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:    getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:         getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:      getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:      getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:  getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:   getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
	}

	if cfg.TMDBAPIKey == "" {
		return Config{}, fmt.Errorf("TMDB_API_KEY is required")
	}
	if err := requireAbsoluteURL("TMDB_URL", cfg.TMDBURL); err != nil {
		return Config{}, err
	}
	if err := requireAbsoluteURL("TMDB_IMAGE_BASE_URL", cfg.TMDBImageBaseURL); err != nil {
		return Config{}, err
	}
	if cfg.TMDBTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("TMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.TMDBMaxPage < 1 || cfg.TMDBMaxPage > MaxProviderPage {
		return Config{}, fmt.Errorf("TMDB_MAX_PAGE must be between 1 and %d", MaxProviderPage)
	}
	if cfg.RequestTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT_SECS must be positive")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required")
		}
		if cfg.DBMaxConns <= 0 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
		}
		if cfg.DBMinConns < 0 {
			return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
		}
		if cfg.DBMinConns > cfg.DBMaxConns {
			return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
		}
		if cfg.DBStatementCache < 0 {
			return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGODB_URI is required")
		}
		if cfg.MongoDatabase == "" {
			return Config{}, fmt.Errorf("MONGODB_DATABASE is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s", DriverPostgres, DriverMongo, DriverMemory)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func requireAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", key)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

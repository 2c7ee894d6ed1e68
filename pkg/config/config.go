package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Redis backs the bandit statistics store. When Host is empty the engine
// falls back to the in-process sharded store.
type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
}

type EngineConfig struct {
	Vertical             string
	TrendingWindowHours  int
	TrendingCacheTTLSec  int
	AffinityCacheTTLSec  int
	AffinityLookbackDays int
	CollabCacheTTLSec    int
	MaxCandidates        int
	DefaultLimit         int
	FeedbackQueueSize    int
	FeedbackMaxRetries   int
	SamplerSeed          int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "FreshBite Recommendation Engine"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "freshbite"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Engine: EngineConfig{
			Vertical:             getEnv("RECO_VERTICAL", "food_delivery"),
			TrendingWindowHours:  getEnvInt("RECO_TRENDING_WINDOW_HOURS", 6),
			TrendingCacheTTLSec:  getEnvInt("RECO_TRENDING_CACHE_TTL_SEC", 300),
			AffinityCacheTTLSec:  getEnvInt("RECO_AFFINITY_CACHE_TTL_SEC", 600),
			AffinityLookbackDays: getEnvInt("RECO_AFFINITY_LOOKBACK_DAYS", 30),
			CollabCacheTTLSec:    getEnvInt("RECO_COLLAB_CACHE_TTL_SEC", 300),
			MaxCandidates:        getEnvInt("RECO_MAX_CANDIDATES", 200),
			DefaultLimit:         getEnvInt("RECO_DEFAULT_LIMIT", 10),
			FeedbackQueueSize:    getEnvInt("RECO_FEEDBACK_QUEUE_SIZE", 1024),
			FeedbackMaxRetries:   getEnvInt("RECO_FEEDBACK_MAX_RETRIES", 3),
			SamplerSeed:          0, // 0 = real entropy; tests inject their own seed
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return n
}

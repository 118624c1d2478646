package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// devJWTSecret is the development fallback signing key. Production refuses
// to start on it.
const devJWTSecret = "dev_secret"

// ErrMissingJWTSecret is returned when no real signing key is configured in
// production. Token issuance cannot work without it, so startup must fail.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Feed     FeedConfig
	Posts    PostsConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the server-wide signing key and token lifetime.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FeedConfig tunes caching of the student feed.
type FeedConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// PostsConfig controls retention cleanup for expired posts.
type PostsConfig struct {
	RetentionPeriod time.Duration
	CleanupInterval time.Duration
	CleanupWorkers  int
}

// ExportsConfig governs the admission-register export endpoint.
type ExportsConfig struct {
	MaxRows int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Feed = FeedConfig{
		CacheEnabled: v.GetBool("ENABLE_FEED_CACHE"),
		CacheTTL:     parseDuration(v.GetString("FEED_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Posts = PostsConfig{
		RetentionPeriod: parseDuration(v.GetString("POST_RETENTION_PERIOD"), 10*24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("POST_CLEANUP_INTERVAL"), time.Hour),
		CleanupWorkers:  v.GetInt("POST_CLEANUP_WORKERS"),
	}

	cfg.Exports = ExportsConfig{
		MaxRows: v.GetInt("EXPORT_MAX_ROWS"),
	}

	if cfg.Env == EnvProduction && (cfg.JWT.Secret == "" || cfg.JWT.Secret == devJWTSecret) {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pathshala")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "720h")
	v.SetDefault("JWT_ISSUER", "pathshala-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_FEED_CACHE", false)
	v.SetDefault("FEED_CACHE_TTL", "2m")

	v.SetDefault("POST_RETENTION_PERIOD", "240h")
	v.SetDefault("POST_CLEANUP_INTERVAL", "1h")
	v.SetDefault("POST_CLEANUP_WORKERS", 1)

	v.SetDefault("EXPORT_MAX_ROWS", 5000)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

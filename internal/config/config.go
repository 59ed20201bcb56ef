package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Header constants.
const (
	HEADER_KEY_X_USER_ID = "X-User-Id"
)

const (
	ENV_KEY_APP_ENV   = "APP_ENV"
	ENV_KEY_PORT      = "PORT"
	ENV_KEY_LOG_LEVEL = "LOG_LEVEL"

	ENV_KEY_DB_DATABASE             = "DB_DATABASE"
	ENV_KEY_DB_PASSWORD             = "DB_PASSWORD"
	ENV_KEY_DB_USER                 = "DB_USER"
	ENV_KEY_DB_PORT                 = "DB_PORT"
	ENV_KEY_DB_HOST                 = "DB_HOST"
	ENV_KEY_DB_MAX_OPEN_CONNECTIONS = "DB_MAX_OPEN_CONNECTIONS"

	ENV_KEY_REDIS_HOST     = "REDIS_HOST"
	ENV_KEY_REDIS_PORT     = "REDIS_PORT"
	ENV_KEY_REDIS_PASSWORD = "REDIS_PASSWORD"

	ENV_KEY_CATALOG_CACHE_TTL = "CATALOG_CACHE_TTL"

	ENV_KEY_MINIO_ENDPOINT    = "MINIO_ENDPOINT"
	ENV_KEY_MINIO_ACCESS_KEY  = "MINIO_ACCESS_KEY"
	ENV_KEY_MINIO_SECRET_KEY  = "MINIO_SECRET_KEY"
	ENV_KEY_MINIO_BUCKET      = "MINIO_BUCKET"
	ENV_KEY_MINIO_PUBLIC_PATH = "MINIO_PUBLIC_PATH"
	ENV_KEY_MINIO_SECURE      = "MINIO_SECURE"

	ENV_KEY_WORKER_CONCURRENCY = "WORKER_CONCURRENCY"

	ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT = "OTEL_EXPORTER_OTLP_ENDPOINT"
	ENV_KEY_OTEL_SERVICE_NAME           = "OTEL_SERVICE_NAME"
)

const (
	PRESIGN_URL_EXPIRE_MINUTES = 15

	// upper bound on concurrent catalog lookups while reconciling a scene
	RESOLVE_CONCURRENCY = 8

	// per client ip
	RATE_LIMIT_PER_SECOND = 20
	RATE_LIMIT_BURST      = 40
)

type ContextKey uint

const (
	_ ContextKey = iota
	CTX_KEY_USER_ID
)

// Config is the process configuration gathered from the environment.
type Config struct {
	AppEnv   string
	Port     int
	LogLevel string

	DBHost               string
	DBPort               string
	DBUser               string
	DBPassword           string
	DBDatabase           string
	DBMaxOpenConnections int

	RedisAddr       string
	RedisPassword   string
	CatalogCacheTTL time.Duration

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioPublicPath string
	MinioSecure     bool

	WorkerConcurrency int

	OTLPEndpoint string
	ServiceName  string
}

func Load() Config {
	return Config{
		AppEnv:   getString(ENV_KEY_APP_ENV, "local"),
		Port:     getInt(ENV_KEY_PORT, 8080),
		LogLevel: strings.ToUpper(getString(ENV_KEY_LOG_LEVEL, "INFO")),

		DBHost:               os.Getenv(ENV_KEY_DB_HOST),
		DBPort:               getString(ENV_KEY_DB_PORT, "5432"),
		DBUser:               os.Getenv(ENV_KEY_DB_USER),
		DBPassword:           os.Getenv(ENV_KEY_DB_PASSWORD),
		DBDatabase:           os.Getenv(ENV_KEY_DB_DATABASE),
		DBMaxOpenConnections: getInt(ENV_KEY_DB_MAX_OPEN_CONNECTIONS, 0),

		RedisAddr: getString(ENV_KEY_REDIS_HOST, "localhost") + ":" +
			getString(ENV_KEY_REDIS_PORT, "6379"),
		RedisPassword:   os.Getenv(ENV_KEY_REDIS_PASSWORD),
		CatalogCacheTTL: getDuration(ENV_KEY_CATALOG_CACHE_TTL, 30*time.Second),

		MinioEndpoint:   os.Getenv(ENV_KEY_MINIO_ENDPOINT),
		MinioAccessKey:  os.Getenv(ENV_KEY_MINIO_ACCESS_KEY),
		MinioSecretKey:  os.Getenv(ENV_KEY_MINIO_SECRET_KEY),
		MinioBucket:     getString(ENV_KEY_MINIO_BUCKET, "roomcraft"),
		MinioPublicPath: getString(ENV_KEY_MINIO_PUBLIC_PATH, "public"),
		MinioSecure:     getBool(ENV_KEY_MINIO_SECURE, true),

		WorkerConcurrency: getInt(ENV_KEY_WORKER_CONCURRENCY, 10),

		OTLPEndpoint: os.Getenv(ENV_KEY_OTEL_EXPORTER_OTLP_ENDPOINT),
		ServiceName:  getString(ENV_KEY_OTEL_SERVICE_NAME, "roomcraft"),
	}
}

// DSN returns the postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBDatabase + "?sslmode=disable"
}

func (c Config) IsLocal() bool {
	return c.AppEnv == "local"
}

func getString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

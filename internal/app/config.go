package app

import (
	"time"

	"github.com/cesizen/cesizen-backend/internal/data/db"
	"github.com/cesizen/cesizen-backend/internal/observability"
	"github.com/cesizen/cesizen-backend/internal/platform/envutil"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime/bus"
)

const serviceName = "cesizen-api"

type Config struct {
	Port    string
	Env     string
	Version string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DB    db.Config
	Redis bus.RedisConfig

	CORSOrigins        []string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	env := envutil.String("APP_ENV", "development", log)
	version := envutil.String("APP_VERSION", "dev", log)

	jwtSecretKey := envutil.Secret("JWT_SECRET_KEY", "defaultsecret", log)
	if jwtSecretKey == "defaultsecret" && env == "production" {
		log.Warn("JWT_SECRET_KEY is unset in production; tokens use the default secret")
	}

	otelEndpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log)

	return Config{
		Port:    envutil.String("PORT", "8080", log),
		Env:     env,
		Version: version,

		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", 3600, log),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 86400, log),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.Secret("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "cesizen", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "cesizen.db", log),
		},
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.Secret("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannel, log),
		},

		CORSOrigins:        envutil.List("CORS_ALLOWED_ORIGINS", nil, log),
		AuthRateLimitRPS:   envutil.Float("AUTH_RATE_LIMIT_RPS", 5, log),
		AuthRateLimitBurst: envutil.Int("AUTH_RATE_LIMIT_BURST", 10, log),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: serviceName,
			Environment: env,
			Version:     version,
			Exporter:    envutil.String("OTEL_TRACES_EXPORTER", observability.ExporterAuto, log),
			Endpoint:    otelEndpoint,
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1, log),
		},
	}
}

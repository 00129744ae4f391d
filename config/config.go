// Package config loads runtime settings from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the environment win over it. Command-line flags in
// cmd/server override both.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	DBDriver string
	DBDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	// Redis is optional; an empty RedisAddr disables the room-type cache.
	RedisAddr string
	RedisPass string
	RedisDB   int
	CacheTTL  time.Duration

	// AMQP is optional; an empty AMQPURL disables event publishing.
	AMQPURL      string
	AMQPExchange string

	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Set it only when a reverse proxy that overwrites those headers sits
	// in front of the server.
	TrustProxy  bool
	CORSOrigins []string
	Currency       string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	c := Config{
		AppEnv:         env("APP_ENV", "dev"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		DBDriver:       env("DB_DRIVER", "sqlite3"),
		DBDSN:          env("DB_DSN", "frontdesk.db"),
		JWTSecret:      env("JWT_SECRET", ""),
		TokenTTL:       time.Duration(atoi("ACCESS_TOKEN_TTL_MIN", 720)) * time.Minute,
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 600)) * time.Second,
		AMQPURL:        env("AMQP_URL", ""),
		AMQPExchange:   env("AMQP_EXCHANGE", "frontdesk.events"),
		RateLimitRPS:   atof("RATE_LIMIT_RPS", 20),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 40),
		TrustProxy:     atob("TRUST_PROXY", false),
		CORSOrigins:    list("CORS_ORIGINS", []string{"*"}),
		Currency:       env("CURRENCY", "MXN"),
	}
	if c.JWTSecret == "" {
		if c.Production() {
			log.Fatal().Msg("JWT_SECRET is required when APP_ENV=prod")
		}
		c.JWTSecret = "dev-secret-change-me"
		log.Warn().Msg("JWT_SECRET is empty; using the development secret")
	}
	return c
}

func (c Config) Production() bool { return c.AppEnv == "prod" || c.AppEnv == "production" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid number, using default")
	}
	return def
}

func atob(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
	}
	return def
}

func list(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

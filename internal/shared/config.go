package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	RatesBase     string
	RatesRPS      int
	CacheTTL      time.Duration
	RateCacheTTL  time.Duration
	ImportDir     string
	ImportBatch   int
	BasicAuthUser string
	BasicAuthPass string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/play?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		RatesBase:     env("RATES_BASE_URL", "https://api.exchangerate-api.com/v4/latest"),
		RatesRPS:      atoi("RATES_RPS", 5),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RateCacheTTL:  time.Duration(atoi("RATE_CACHE_TTL_SECONDS", 3600)) * time.Second,
		ImportDir:     env("IMPORT_DIR", "data/imports"),
		ImportBatch:   atoi("IMPORT_BATCH_SIZE", 500),
		BasicAuthUser: env("BASIC_AUTH_USER", ""),
		BasicAuthPass: env("BASIC_AUTH_PASSWORD", ""),
	}
	if c.BasicAuthUser == "" {
		log.Warn().Msg("BASIC_AUTH_USER is empty; import endpoints are open")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

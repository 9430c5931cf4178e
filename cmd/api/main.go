package main

import (
	"database/sql"
	"net/http"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"billingfile/internal/adapters/archive"
	server "billingfile/internal/adapters/http_server"
	"billingfile/internal/adapters/observability"
	"billingfile/internal/adapters/rates"
	redisad "billingfile/internal/adapters/redis"
	"billingfile/internal/app"
	"billingfile/internal/shared"
	mysqlrepo "billingfile/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	rateSrc := rates.New(cfg.RatesBase, cfg.RatesRPS, cfg.RateCacheTTL)

	billing := app.NewBillingService(repo, repo, rateSrc, cache, cfg.CacheTTL)
	queries := app.NewQueryService(repo, repo, cache, cfg.CacheTTL)
	importer := app.NewImportService(repo, archive.New(), cfg.ImportBatch)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		B:          billing,
		Q:          queries,
		I:          importer,
		PendingDir: filepath.Join(cfg.ImportDir, "pending"),
		AuthUser:   cfg.BasicAuthUser,
		AuthPass:   cfg.BasicAuthPass,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"billingfile/internal/adapters/archive"
	"billingfile/internal/adapters/observability"
	"billingfile/internal/app"
	"billingfile/internal/shared"
	mysqlrepo "billingfile/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	pending := filepath.Join(cfg.ImportDir, "pending")
	log.Info().
		Str("dir", pending).
		Int("batch", cfg.ImportBatch).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	imp := app.NewImportService(repo, archive.New(), cfg.ImportBatch)

	files, err := filepath.Glob(filepath.Join(pending, "*.csv"))
	if err != nil {
		log.Fatal().Err(err).Msg("scan of pending directory failed")
	}
	if len(files) == 0 {
		log.Info().Msg("no pending files, nothing to do")
		return
	}

	// Imports are strictly sequential: every run truncates and refills
	// the same reference table, so concurrent runs would interleave
	// truncates with another file's half-flushed batches. Oldest name
	// first, so the last file's snapshot is what remains.
	sort.Strings(files)

	for _, path := range files {
		res, err := imp.ImportFile(ctx, path)
		if err != nil {
			log.Warn().Str("file", path).Err(err).Msg("import failed to start")
			continue
		}
		log.Info().
			Str("file", path).
			Bool("success", res.IsSuccess).
			Int("rows", res.TotalRows).
			Int("failed", res.FailedRows).
			Int("skipped", res.SkippedRows).
			Msg("import finished")
	}

	log.Info().Msg("all imports completed")
}

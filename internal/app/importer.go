package app

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"billingfile/internal/adapters/observability"
	"billingfile/internal/domain"
)

const defaultImportBatch = 500

// ImportService streams semicolon-delimited hotel currency CSVs into the
// reference table. Each run is a full replace: the table is truncated
// before the first row is parsed, so a failed run leaves it empty and
// the import must be re-run.
type ImportService struct {
	store     domain.HotelCurrencyRepository
	archive   domain.FileArchiver
	batchSize int
}

func NewImportService(store domain.HotelCurrencyRepository, archive domain.FileArchiver, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = defaultImportBatch
	}
	return &ImportService{store: store, archive: archive, batchSize: batchSize}
}

// ImportFile imports one file from disk and archives it to the
// processed/ or failed/ sibling folder. The returned error covers only
// the open; row- and run-level problems live in the result.
func (s *ImportService) ImportFile(ctx context.Context, path string) (domain.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("open import file: %w", err)
	}
	res := s.ImportFromStream(ctx, f, filepath.Base(path))
	f.Close()

	if s.archive != nil {
		status := "processed"
		if !res.IsSuccess {
			status = "failed"
		}
		dst, aerr := s.archive.Move(path, status)
		if aerr != nil {
			log.Error().Err(aerr).Str("file", path).Msg("archive move failed")
		} else {
			res.ArchivePath = dst
			if !res.IsSuccess {
				if lerr := s.archive.WriteErrorLog(dst, res); lerr != nil {
					log.Error().Err(lerr).Str("file", dst).Msg("write import error log failed")
				}
			}
		}
	}
	return res, nil
}

// ImportFromStream runs the whole import state machine over one CSV
// stream: truncate, stream rows, validate/transform/buffer, flush in
// batches, summarize. Bad rows never abort the run; only storage-level
// failures do.
func (s *ImportService) ImportFromStream(ctx context.Context, r io.Reader, sourceName string) (res domain.ImportResult) {
	start := time.Now()
	res = domain.ImportResult{Errors: []string{}, Warnings: []string{}}
	fatal := false

	// res is the named return so the summary below lands in the value
	// the caller sees, not in a dead copy.

	defer func() {
		res.Duration = time.Since(start)
		res.IsSuccess = !fatal && res.FailedRows == 0
		log.Info().
			Str("file", sourceName).
			Int("total", res.TotalRows).
			Int("ok", res.SuccessfulRows).
			Int("failed", res.FailedRows).
			Int("skipped", res.SkippedRows).
			Dur("duration", res.Duration).
			Msg("hotel currency import finished")
	}()

	log.Info().Str("file", sourceName).Msg("starting hotel currency import; truncating reference table")
	if err := s.store.TruncateHotelCurrencies(ctx); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("critical: truncate hotel currency table: %v", err))
		fatal = true
		return res
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("critical: read CSV header: %v", err))
		fatal = true
		return res
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	batch := make([]domain.HotelCurrency, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.InsertHotelCurrencies(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("critical: import cancelled: %v", err))
			fatal = true
			return res
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		res.TotalRows++
		if err != nil {
			res.FailedRows++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", res.TotalRows, err))
			observability.ObserveImportRow("failed")
			continue
		}

		idRaw := field(row, "ID")
		id, err := cast.ToInt64E(idRaw)
		if err != nil || id <= 0 {
			res.SkippedRows++
			res.Warnings = append(res.Warnings, fmt.Sprintf("Row %d: invalid or missing ID %q", res.TotalRows, idRaw))
			observability.ObserveImportRow("skipped")
			continue
		}
		currency := field(row, "Currency")
		if currency == "" {
			res.SkippedRows++
			res.Warnings = append(res.Warnings, fmt.Sprintf("Row %d: missing Currency", res.TotalRows))
			observability.ObserveImportRow("skipped")
			continue
		}
		enabled := strings.EqualFold(field(row, "Status"), "ACTIVE")

		batch = append(batch, domain.HotelCurrency{HotelID: id, Enabled: enabled, Currency: currency})
		res.SuccessfulRows++
		observability.ObserveImportRow("success")

		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("critical: insert batch: %v", err))
				fatal = true
				return res
			}
			log.Info().Str("file", sourceName).Int("rows", res.SuccessfulRows).Msg("import batch flushed")
		}
	}

	if err := flush(); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("critical: insert final batch: %v", err))
		fatal = true
	}
	return res
}

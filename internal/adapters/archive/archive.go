package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"billingfile/internal/domain"
)

// Store archives consumed import files next to their source directory:
// <dir>/../processed or <dir>/../failed, with a timestamp suffix so
// repeated imports of the same file name never collide.
type Store struct {
	now func() time.Time
}

func New() *Store { return &Store{now: time.Now} }

func (s *Store) Move(src, status string) (string, error) {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	ts := s.now().Format("20060102_150405")

	dir := filepath.Join(filepath.Dir(src), "..", status)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", name, ts, status, ext))
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("move to archive: %w", err)
	}
	log.Info().Str("from", src).Str("to", dst).Msg("import file archived")
	return dst, nil
}

// WriteErrorLog writes the plain-text failure summary beside the
// archived file: header block, blank line, errors, optional warnings.
func (s *Store) WriteErrorLog(archivePath string, res domain.ImportResult) error {
	logPath := strings.TrimSuffix(archivePath, filepath.Ext(archivePath)) + ".log"

	lines := []string{
		"Import Failed: " + s.now().Format(time.RFC3339),
		fmt.Sprintf("Total Rows: %d", res.TotalRows),
		fmt.Sprintf("Successful: %d", res.SuccessfulRows),
		fmt.Sprintf("Failed: %d", res.FailedRows),
		fmt.Sprintf("Skipped: %d", res.SkippedRows),
		fmt.Sprintf("Duration: %s", res.Duration),
		"",
		"Errors:",
		"-------",
	}
	lines = append(lines, res.Errors...)
	if len(res.Warnings) > 0 {
		lines = append(lines, "", "Warnings:", "---------")
		lines = append(lines, res.Warnings...)
	}

	if err := os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write error log: %w", err)
	}
	log.Info().Str("path", logPath).Msg("import error log written")
	return nil
}

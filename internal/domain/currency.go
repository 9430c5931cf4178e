package domain

import "time"

// HotelCurrency maps a hotel to the currency its billing figures are
// expected to be denominated in. The table is wholesale-replaced on each
// CSV import; there is no incremental upsert.
type HotelCurrency struct {
	HotelID  int64
	Enabled  bool
	Currency string
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	IsSuccess      bool          `json:"is_success"`
	TotalRows      int           `json:"total_rows"`
	SuccessfulRows int           `json:"successful_rows"`
	FailedRows     int           `json:"failed_rows"`
	SkippedRows    int           `json:"skipped_rows"`
	Errors         []string      `json:"errors"`
	Warnings       []string      `json:"warnings"`
	Duration       time.Duration `json:"duration"`
	ArchivePath    string        `json:"archive_path,omitempty"`
}

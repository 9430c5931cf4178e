package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"billingfile/internal/app"
	"billingfile/internal/domain"
)

// ---- fakes ----

type fakeCurrencyStore struct {
	truncates int
	rows      []domain.HotelCurrency
	batches   []int

	truncErr  error
	insertErr error
}

func (f *fakeCurrencyStore) ListHotelCurrencies(ctx context.Context) ([]domain.HotelCurrency, error) {
	return f.rows, nil
}

func (f *fakeCurrencyStore) TruncateHotelCurrencies(ctx context.Context) error {
	f.truncates++
	if f.truncErr != nil {
		return f.truncErr
	}
	f.rows = nil
	return nil
}

func (f *fakeCurrencyStore) InsertHotelCurrencies(ctx context.Context, batch []domain.HotelCurrency) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches = append(f.batches, len(batch))
	f.rows = append(f.rows, batch...)
	return nil
}

type fakeArchiver struct {
	movedSrc    string
	movedStatus string
	loggedRes   *domain.ImportResult
}

func (f *fakeArchiver) Move(src, status string) (string, error) {
	f.movedSrc = src
	f.movedStatus = status
	return src + ".archived", nil
}

func (f *fakeArchiver) WriteErrorLog(archivePath string, res domain.ImportResult) error {
	f.loggedRes = &res
	return nil
}

// ---- tests ----

func TestImport_MixedRows(t *testing.T) {
	store := &fakeCurrencyStore{}
	svc := app.NewImportService(store, nil, 0)

	csvData := strings.Join([]string{
		"ID;Name;Currency;Status",
		"101;Alpha Hotel;EUR;ACTIVE",
		"abc;Beta Hotel;USD;ACTIVE",
		"102;Gamma Hotel;;ACTIVE",
	}, "\n")

	res := svc.ImportFromStream(context.Background(), strings.NewReader(csvData), "mixed.csv")

	// a zero-failed run must come back marked successful, with its
	// duration stamped, in the value the caller receives
	if !res.IsSuccess {
		t.Fatalf("expected success, errors: %v", res.Errors)
	}
	if res.Duration <= 0 {
		t.Fatalf("duration not recorded: %v", res.Duration)
	}
	if res.TotalRows != 3 || res.SuccessfulRows != 1 || res.SkippedRows != 2 || res.FailedRows != 0 {
		t.Fatalf("counts: %+v", res)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings: %v", res.Warnings)
	}
	if store.truncates != 1 {
		t.Fatalf("truncates: %d", store.truncates)
	}
	if len(store.rows) != 1 {
		t.Fatalf("stored rows: %+v", store.rows)
	}
	got := store.rows[0]
	if got.HotelID != 101 || !got.Enabled || got.Currency != "EUR" {
		t.Fatalf("stored row: %+v", got)
	}
}

func TestImport_InactiveStatusStoredDisabled(t *testing.T) {
	store := &fakeCurrencyStore{}
	svc := app.NewImportService(store, nil, 0)

	res := svc.ImportFromStream(context.Background(),
		strings.NewReader("ID;Name;Currency;Status\n55;Delta;CHF;inactive\n"), "one.csv")

	if !res.IsSuccess || res.SuccessfulRows != 1 {
		t.Fatalf("result: %+v", res)
	}
	if store.rows[0].Enabled {
		t.Fatal("row should be disabled")
	}
}

func TestImport_EmptyFileTruncatesOnly(t *testing.T) {
	store := &fakeCurrencyStore{rows: []domain.HotelCurrency{{HotelID: 1, Enabled: true, Currency: "EUR"}}}
	svc := app.NewImportService(store, nil, 0)

	res := svc.ImportFromStream(context.Background(),
		strings.NewReader("ID;Name;Currency;Status\n"), "empty.csv")

	if !res.IsSuccess || res.TotalRows != 0 {
		t.Fatalf("result: %+v", res)
	}
	if store.truncates != 1 || len(store.rows) != 0 {
		t.Fatalf("table not replaced: %+v", store.rows)
	}
}

func TestImport_TruncateFailureAbortsRun(t *testing.T) {
	store := &fakeCurrencyStore{truncErr: errors.New("table locked")}
	svc := app.NewImportService(store, nil, 0)

	res := svc.ImportFromStream(context.Background(),
		strings.NewReader("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), "locked.csv")

	if res.IsSuccess {
		t.Fatal("run should have failed")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "critical") {
		t.Fatalf("errors: %v", res.Errors)
	}
	if res.TotalRows != 0 {
		t.Fatalf("rows parsed after fatal truncate: %d", res.TotalRows)
	}
}

func TestImport_InsertFailureAbortsRun(t *testing.T) {
	store := &fakeCurrencyStore{insertErr: errors.New("connection reset")}
	svc := app.NewImportService(store, nil, 0)

	res := svc.ImportFromStream(context.Background(),
		strings.NewReader("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), "bad.csv")

	if res.IsSuccess {
		t.Fatal("run should have failed")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "insert") {
		t.Fatalf("errors: %v", res.Errors)
	}
}

func TestImport_BatchFlushing(t *testing.T) {
	store := &fakeCurrencyStore{}
	svc := app.NewImportService(store, nil, 2)

	var b strings.Builder
	b.WriteString("ID;Name;Currency;Status\n")
	for i := 1; i <= 5; i++ {
		b.WriteString(strings.Join([]string{
			string(rune('0' + i)), "Hotel", "EUR", "ACTIVE"}, ";") + "\n")
	}
	res := svc.ImportFromStream(context.Background(), strings.NewReader(b.String()), "batch.csv")

	if !res.IsSuccess || res.SuccessfulRows != 5 {
		t.Fatalf("result: %+v", res)
	}
	if len(store.batches) != 3 || store.batches[0] != 2 || store.batches[1] != 2 || store.batches[2] != 1 {
		t.Fatalf("batches: %v", store.batches)
	}
}

func TestImport_ContextCancelled(t *testing.T) {
	store := &fakeCurrencyStore{}
	svc := app.NewImportService(store, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.ImportFromStream(ctx,
		strings.NewReader("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), "cancelled.csv")

	if res.IsSuccess {
		t.Fatal("run should have failed")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "cancelled") {
		t.Fatalf("errors: %v", res.Errors)
	}
}

func TestImportFile_ArchivesProcessed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hotels.csv")
	if err := os.WriteFile(path, []byte("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeCurrencyStore{}
	arch := &fakeArchiver{}
	svc := app.NewImportService(store, arch, 0)

	res, err := svc.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !res.IsSuccess {
		t.Fatalf("result: %+v", res)
	}
	if arch.movedStatus != "processed" || arch.movedSrc != path {
		t.Fatalf("archive: %+v", arch)
	}
	if arch.loggedRes != nil {
		t.Fatal("error log written for a successful run")
	}
	if res.ArchivePath != path+".archived" {
		t.Fatalf("archive path: %q", res.ArchivePath)
	}
}

func TestImportFile_ArchivesFailedWithLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hotels.csv")
	if err := os.WriteFile(path, []byte("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeCurrencyStore{insertErr: errors.New("boom")}
	arch := &fakeArchiver{}
	svc := app.NewImportService(store, arch, 0)

	res, err := svc.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.IsSuccess {
		t.Fatal("run should have failed")
	}
	if arch.movedStatus != "failed" {
		t.Fatalf("archive status: %q", arch.movedStatus)
	}
	if arch.loggedRes == nil || len(arch.loggedRes.Errors) == 0 {
		t.Fatalf("error log: %+v", arch.loggedRes)
	}
}

func TestImportFile_OpenFailure(t *testing.T) {
	svc := app.NewImportService(&fakeCurrencyStore{}, &fakeArchiver{}, 0)
	if _, err := svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

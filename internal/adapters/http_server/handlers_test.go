package httpserver_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	httpserver "billingfile/internal/adapters/http_server"
	"billingfile/internal/app"
	"billingfile/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// ---- fakes ----

type fakeBillingRepo struct{ rows []domain.BillingRow }

func (f *fakeBillingRepo) GetBillingReservations(ctx context.Context, from, to time.Time) ([]domain.BillingRow, error) {
	return f.rows, nil
}

type fakeCurrencyStore struct{ rows []domain.HotelCurrency }

func (f *fakeCurrencyStore) ListHotelCurrencies(ctx context.Context) ([]domain.HotelCurrency, error) {
	return f.rows, nil
}
func (f *fakeCurrencyStore) TruncateHotelCurrencies(ctx context.Context) error { f.rows = nil; return nil }
func (f *fakeCurrencyStore) InsertHotelCurrencies(ctx context.Context, batch []domain.HotelCurrency) error {
	f.rows = append(f.rows, batch...)
	return nil
}

type fakeRates struct{}

func (fakeRates) Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(1), nil
}
func (fakeRates) Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, error) {
	return amount, nil
}

type fakeHotelRepo struct{ h domain.Hotel }

func (f *fakeHotelRepo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	if id != f.h.ID {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return f.h, nil
}
func (f *fakeHotelRepo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	return []domain.Hotel{f.h}, nil
}

type fakeResvRepo struct{ r domain.Reservation }

func (f *fakeResvRepo) GetReservationByConfirm(ctx context.Context, confirm string) (domain.Reservation, error) {
	if f.r.ConfirmNumber == nil || *f.r.ConfirmNumber != confirm {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return f.r, nil
}
func (f *fakeResvRepo) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	return []domain.Reservation{f.r}, nil
}

type fakeArchiver struct{}

func (fakeArchiver) Move(src, status string) (string, error)                       { return src, nil }
func (fakeArchiver) WriteErrorLog(archivePath string, res domain.ImportResult) error { return nil }

const testXML = `<HotelReservation ResStatus="Commit">
  <RoomStays><RoomStay><TimeSpan Start="2026-03-10" End="2026-03-14"/></RoomStay></RoomStays>
  <ResGuests><ResGuest><Profiles><ProfileInfo><Profile ProfileType="1"><Customer>
    <PersonName><GivenName>Lee, "Jay"</GivenName><Surname>Park</Surname></PersonName>
  </Customer></Profile></ProfileInfo></Profiles></ResGuest></ResGuests>
  <ResGlobalInfo><Total AmountBeforeTax="400.00" CurrencyCode="EUR"/></ResGlobalInfo>
</HotelReservation>`

func newTestServer(t *testing.T, pendingDir string) *httptest.Server {
	t.Helper()
	billing := &fakeBillingRepo{rows: []domain.BillingRow{{
		ID:            1,
		HotelName:     ptr("Northwind Boston"),
		HotelID:       ptr(int64(501)),
		ConfirmNumber: ptr("CONF123"),
		XML:           ptr(testXML),
	}}}
	currencies := &fakeCurrencyStore{}
	hotels := &fakeHotelRepo{h: domain.Hotel{ID: 501, Name: "Northwind Boston", CountryCode: "US", ChainID: 3, Active: true}}
	resvs := &fakeResvRepo{r: domain.Reservation{ID: 9, ConfirmNumber: ptr("CONF123")}}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		B:          app.NewBillingService(billing, currencies, fakeRates{}, nil, time.Minute),
		Q:          app.NewQueryService(hotels, resvs, nil, time.Minute),
		I:          app.NewImportService(currencies, fakeArchiver{}, 0),
		PendingDir: pendingDir,
		AuthUser:   "ops",
		AuthPass:   "secret",
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

// ---- tests ----

func TestBillingReservations_MissingParams(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	res, err := http.Get(ts.URL + "/v1/billing/reservations")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestBillingReservations_BadDate(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	res, err := http.Get(ts.URL + "/v1/billing/reservations?from=03-10-2026&to=2026-03-31")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", res.StatusCode)
	}
}

func TestBillingReservations_InvalidRange(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	res, err := http.Get(ts.URL + "/v1/billing/reservations?from=2026-03-31&to=2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", res.StatusCode)
	}
}

func TestBillingReservations_JSONWithETag(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	url := ts.URL + "/v1/billing/reservations?from=2026-03-01&to=2026-03-31"

	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", res.StatusCode)
	}
	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	var recs []domain.BillingRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Nights == nil || *recs[0].Nights != 4 {
		t.Fatalf("records: %+v", recs)
	}

	// conditional revalidation
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("status: %d", res2.StatusCode)
	}
}

func TestBillingReservations_CSVRoundTrip(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	res, err := http.Get(ts.URL + "/v1/billing/reservations?from=2026-03-01&to=2026-03-31&format=csv")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type: %q", ct)
	}

	rows, err := csv.NewReader(res.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
	header, row := rows[0], rows[1]
	if len(header) != len(row) {
		t.Fatalf("column mismatch: %d vs %d", len(header), len(row))
	}

	col := map[string]int{}
	for i, h := range header {
		col[h] = i
	}
	// value containing a comma and quotes survives the round trip
	if got := row[col["Guest_First_Name"]]; got != `Lee, "Jay"` {
		t.Fatalf("Guest_First_Name: %q", got)
	}
	if got := row[col["Nights"]]; got != "4" {
		t.Fatalf("Nights: %q", got)
	}
	if got := row[col["Revenue_Before_Tax"]]; got != "400.00" {
		t.Fatalf("Revenue_Before_Tax: %q", got)
	}
	if got := row[col["Cancel_Number"]]; got != "" {
		t.Fatalf("Cancel_Number: %q", got)
	}
}

func TestGetHotel(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	res, err := http.Get(ts.URL + "/v1/hotels/501")
	if err != nil {
		t.Fatal(err)
	}
	var h domain.Hotel
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()
	if h.ID != 501 || h.Name != "Northwind Boston" {
		t.Fatalf("hotel: %+v", h)
	}

	res2, err := http.Get(ts.URL + "/v1/hotels/999")
	if err != nil {
		t.Fatal(err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", res2.StatusCode)
	}
}

func TestGetReservationByConfirm(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	res, err := http.Get(ts.URL + "/v1/reservations/CONF123")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", res.StatusCode)
	}
}

func TestListReservations_ConfirmNumberFilter(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	res, err := http.Get(ts.URL + "/v1/reservations?confirm_number=CONF123")
	if err != nil {
		t.Fatal(err)
	}
	var rs []domain.Reservation
	if err := json.NewDecoder(res.Body).Decode(&rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()
	if len(rs) != 1 || rs[0].ID != 9 {
		t.Fatalf("reservations: %+v", rs)
	}

	// unknown confirm number yields an empty list, not a 404
	res2, err := http.Get(ts.URL + "/v1/reservations?confirm_number=NOPE")
	if err != nil {
		t.Fatal(err)
	}
	var empty []domain.Reservation
	if err := json.NewDecoder(res2.Body).Decode(&empty); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusOK || len(empty) != 0 {
		t.Fatalf("status %d, reservations: %+v", res2.StatusCode, empty)
	}
}

func multipartCSV(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestImportUpload_RequiresAuth(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	body, ct := multipartCSV(t, "file", "hotels.csv", "ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n")

	res, err := http.Post(ts.URL+"/v1/imports/hotel-currencies", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: %d", res.StatusCode)
	}
	if res.Header.Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate")
	}
}

func TestImportUpload_OK(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	body, ct := multipartCSV(t, "file", "hotels.csv", "ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n")

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/imports/hotel-currencies", body)
	req.Header.Set("Content-Type", ct)
	req.SetBasicAuth("ops", "secret")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", res.StatusCode)
	}

	var ir domain.ImportResult
	if err := json.NewDecoder(res.Body).Decode(&ir); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ir.IsSuccess || ir.SuccessfulRows != 1 {
		t.Fatalf("result: %+v", ir)
	}
}

func TestImportUpload_RejectsNonCSV(t *testing.T) {
	ts := newTestServer(t, t.TempDir())
	body, ct := multipartCSV(t, "file", "hotels.xlsx", "junk")

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/imports/hotel-currencies", body)
	req.Header.Set("Content-Type", ct)
	req.SetBasicAuth("ops", "secret")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", res.StatusCode)
	}
}

func TestImportPending(t *testing.T) {
	pending := t.TempDir()
	ts := newTestServer(t, pending)

	// unknown file
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/imports/hotel-currencies/pending/nope.csv", nil)
	req.SetBasicAuth("ops", "secret")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d", res.StatusCode)
	}

	// real file
	if err := os.WriteFile(filepath.Join(pending, "hotels.csv"),
		[]byte("ID;Name;Currency;Status\n101;Alpha;EUR;ACTIVE\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	req2, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/imports/hotel-currencies/pending/hotels.csv", nil)
	req2.SetBasicAuth("ops", "secret")
	res2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", res2.StatusCode)
	}
	var ir domain.ImportResult
	if err := json.NewDecoder(res2.Body).Decode(&ir); err != nil {
		t.Fatal(err)
	}
	if !ir.IsSuccess || ir.SuccessfulRows != 1 {
		t.Fatalf("result: %+v", ir)
	}
}

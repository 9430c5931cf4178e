package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("from date is after to date")
)

type BillingRepository interface {
	// GetBillingReservations calls the billing stored procedure for the
	// given date range and returns the raw rows in order.
	GetBillingReservations(ctx context.Context, from, to time.Time) ([]BillingRow, error)
}

type HotelCurrencyRepository interface {
	ListHotelCurrencies(ctx context.Context) ([]HotelCurrency, error)

	// TruncateHotelCurrencies clears the reference table. Imports are a
	// full replace: truncate first, then insert the new file in batches.
	TruncateHotelCurrencies(ctx context.Context) error
	InsertHotelCurrencies(ctx context.Context, batch []HotelCurrency) error
}

type HotelRepository interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, error)
}

type ReservationRepository interface {
	GetReservationByConfirm(ctx context.Context, confirmNumber string) (Reservation, error)
	ListReservations(ctx context.Context, q ReservationsQuery) ([]Reservation, error)
}

// RateSource resolves exchange rates. Lookups are best-effort: an
// unreachable source or unknown currency yields a 1.0 rate, never an
// error that aborts billing assembly.
type RateSource interface {
	Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, error)
}

// FileArchiver moves a consumed import file into its status folder
// (processed/failed) and writes the failure log beside the archive.
type FileArchiver interface {
	Move(src, status string) (string, error)
	WriteErrorLog(archivePath string, res ImportResult) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Queries

type HotelsQuery struct {
	Country *string
	Active  *bool
	Limit   int
}

type ReservationsQuery struct {
	HotelID *int64
	Status  *string
	Limit   int
}

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"billingfile/internal/domain"
)

// Records are assembled concurrently; each row is an independent unit
// of XML parse work.
const assembleWorkers = 4

// BillingService assembles the billing file: raw stored-procedure rows
// are extracted, derived, and currency-normalized into full records.
type BillingService struct {
	billing    domain.BillingRepository
	currencies domain.HotelCurrencyRepository
	rates      domain.RateSource
	cache      domain.Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewBillingService(b domain.BillingRepository, c domain.HotelCurrencyRepository, r domain.RateSource, cache domain.Cache, ttl time.Duration) *BillingService {
	return &BillingService{billing: b, currencies: c, rates: r, cache: cache, cacheTTL: ttl, now: time.Now}
}

// BillingFile returns one record per stored-procedure row for the date
// range, fully assembled. Records are never dropped for data problems;
// only storage-level failures surface as an error.
func (s *BillingService) BillingFile(ctx context.Context, from, to time.Time) ([]domain.BillingRecord, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidRange
	}

	key := fmt.Sprintf("billing:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var out []domain.BillingRecord
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	rows, err := s.billing.GetBillingReservations(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("billing reservations query: %w", err)
	}

	// indexed writes keep the output in stored-procedure row order
	recs := make([]domain.BillingRecord, len(rows))
	sem := semaphore.NewWeighted(assembleWorkers)
	var wg sync.WaitGroup
	for i := range rows {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			recs[i] = AssembleRecord(rows[i])
		}(i)
	}
	wg.Wait()

	// Currency snapshot is read once per run, before the pass.
	entries, err := s.currencies.ListHotelCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("hotel currency snapshot: %w", err)
	}
	NormalizeCurrencies(ctx, recs, BuildCurrencyLookup(entries), s.rates, s.now())

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, recs, int(s.cacheTTL.Seconds()))
	}
	return recs, nil
}

// QueryService serves the thin hotel/reservation read paths.
type QueryService struct {
	hotels       domain.HotelRepository
	reservations domain.ReservationRepository
	cache        domain.Cache
	cacheTTL     time.Duration
}

func NewQueryService(h domain.HotelRepository, r domain.ReservationRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{hotels: h, reservations: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	key := fmt.Sprintf("hotel:%d", id)
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := s.hotels.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	}
	return h, nil
}

func (s *QueryService) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	return s.hotels.ListHotels(ctx, q)
}

func (s *QueryService) GetReservationByConfirm(ctx context.Context, confirm string) (domain.Reservation, error) {
	return s.reservations.GetReservationByConfirm(ctx, confirm)
}

func (s *QueryService) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	return s.reservations.ListReservations(ctx, q)
}

package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"billingfile/internal/domain"
)

// BuildCurrencyLookup indexes the reference-table snapshot by hotel id.
// Disabled entries are dropped: a hotel with Enabled=false is not
// currency-checked.
func BuildCurrencyLookup(entries []domain.HotelCurrency) map[int64]domain.HotelCurrency {
	m := make(map[int64]domain.HotelCurrency, len(entries))
	for _, e := range entries {
		if e.Enabled {
			m[e.HotelID] = e
		}
	}
	return m
}

// NormalizeCurrencies applies the revenue backfill and expected-currency
// conversion pass to every record, in place. Records are independent: a
// conversion failure is logged and leaves that record unconverted
// without touching the rest. The pass is idempotent: once a record's
// currency matches the expected one it is never converted again.
func NormalizeCurrencies(ctx context.Context, recs []domain.BillingRecord, lookup map[int64]domain.HotelCurrency, rates domain.RateSource, now time.Time) {
	for i := range recs {
		normalizeRecord(ctx, &recs[i], lookup, rates, now)
	}
}

func normalizeRecord(ctx context.Context, rec *domain.BillingRecord, lookup map[int64]domain.HotelCurrency, rates domain.RateSource, now time.Time) {
	backfillRevenue(rec)

	if rec.HotelID == nil {
		return
	}
	entry, ok := lookup[*rec.HotelID]
	if !ok {
		return
	}
	have := strings.TrimSpace(deref(rec.Currency))
	want := strings.TrimSpace(entry.Currency)
	if have == "" || want == "" || strings.EqualFold(have, want) {
		return
	}

	// Rate date: confirmation date when parsable, else "now".
	on := now
	if t, ok := parseStayDate(rec.ConfirmDate); ok {
		on = t
	}

	rate, err := rates.Rate(ctx, have, want, on)
	if err != nil {
		log.Error().Err(err).
			Int64("id", rec.ID).
			Str("from", have).
			Str("to", want).
			Msg("currency conversion failed; record left unconverted")
		return
	}

	for _, f := range []**decimal.Decimal{&rec.RevenueBeforeTax, &rec.RevenueAfterTax, &rec.RateInclusiveTax, &rec.ADR} {
		if *f == nil {
			continue
		}
		v := (*f).Mul(rate).Round(2)
		*f = &v
	}
	rec.Currency = &want
}

// backfillRevenue null-coalesces the two revenue figures symmetrically:
// whichever side is present fills the absent one. Both present or both
// absent is a no-op.
func backfillRevenue(rec *domain.BillingRecord) {
	switch {
	case rec.RevenueBeforeTax == nil && rec.RevenueAfterTax != nil:
		v := *rec.RevenueAfterTax
		rec.RevenueBeforeTax = &v
	case rec.RevenueAfterTax == nil && rec.RevenueBeforeTax != nil:
		v := *rec.RevenueBeforeTax
		rec.RevenueAfterTax = &v
	}
}

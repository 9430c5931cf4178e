package app

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billingfile/internal/domain"
)

// stay dates arrive as strings in a couple of layouts
var stayDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseStayDate(p *string) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stayDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// deriveNights computes the whole-day stay length. Either date missing
// or unparsable leaves Nights nil. Negative values (departure before
// arrival) are kept as-is; the source data is trusted here.
func deriveNights(rec *domain.BillingRecord) {
	start, ok := parseStayDate(rec.ArrivalDate)
	if !ok {
		return
	}
	end, ok := parseStayDate(rec.DepartureDate)
	if !ok {
		return
	}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	n := int(endDay.Sub(startDay) / (24 * time.Hour))
	rec.Nights = &n
}

// deriveADR computes the average daily rate from the stay total.
// Before-tax revenue is preferred; after-tax is the fallback. With zero
// or unknown nights the total passes through undivided to avoid a
// divide-by-zero. Division rounds to 2 places, half away from zero
// (shopspring default).
func deriveADR(rec *domain.BillingRecord) {
	total := rec.RevenueBeforeTax
	if total == nil {
		total = rec.RevenueAfterTax
	}
	if total == nil {
		return
	}
	if rec.Nights == nil || *rec.Nights == 0 {
		adr := *total
		rec.ADR = &adr
		return
	}
	adr := total.Div(decimal.NewFromInt(int64(*rec.Nights))).Round(2)
	rec.ADR = &adr
}

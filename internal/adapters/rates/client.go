// internal/adapters/rates/client.go
package rates

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"billingfile/internal/adapters/observability"
)

var one = decimal.NewFromInt(1)

// Client resolves exchange rates against a rate-table API
// (exchangerate-api style: GET {base}/{FROM} -> {"rates": {...}}).
// Lookups are best-effort: any transport or parse failure, and any
// unknown target currency, falls back to a 1.0 rate. The client owns a
// process-wide TTL cache keyed by (from, to, day); concurrent requests
// share it behind an RWMutex.
//
// The date parameter is accepted and keyed on for future historical
// support, but the upstream free tier only serves latest rates.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
	ttl  time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRate
}

type cachedRate struct {
	rate decimal.Decimal
	exp  time.Time
}

func New(base string, rps int, ttl time.Duration) *Client {
	if rps <= 0 {
		rps = 5
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
		ttl:   ttl,
		cache: make(map[string]cachedRate),
	}
}

// Rate returns the multiplicative rate for one unit of from in to.
// Same-currency pairs short-circuit to 1 without any call.
func (c *Client) Rate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return one, nil
	}

	key := fmt.Sprintf("%s_%s_%s", from, to, on.Format("2006-01-02"))
	if r, ok := c.cached(key); ok {
		return r, nil
	}

	table, err := c.fetchTable(ctx, from)
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Decimal{}, ctx.Err()
		}
		log.Warn().Err(err).Str("from", from).Str("to", to).Msg("rate fetch failed; falling back to 1.0")
		return one, nil
	}

	for cur, v := range table {
		if strings.EqualFold(cur, to) {
			c.store(key, v)
			return v, nil
		}
	}
	log.Warn().Str("from", from).Str("to", to).Msg("target currency not in rate table; falling back to 1.0")
	return one, nil
}

// Convert applies the resolved rate and rounds to 2 places.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, error) {
	r, err := c.Rate(ctx, from, to, on)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(r).Round(2), nil
}

func (c *Client) cached(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[key]
	if !ok || time.Now().After(e.exp) {
		return decimal.Decimal{}, false
	}
	return e.rate, true
}

func (c *Client) store(key string, r decimal.Decimal) {
	c.mu.Lock()
	c.cache[key] = cachedRate{rate: r, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// fetchTable GETs the rate table for a base currency with client-side
// rate limiting and retries on 429/5xx, honoring Retry-After.
func (c *Client) fetchTable(ctx context.Context, from string) (map[string]decimal.Decimal, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s", c.base, from)

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return nil, lastErr
		}
		observability.ObserveExternal("rates", "latest", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			var body struct {
				Rates map[string]decimal.Decimal `json:"rates"`
			}
			err := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode rate table: %w", err)
			}
			if len(body.Rates) == 0 {
				return nil, fmt.Errorf("empty rate table for %s", from)
			}
			return body.Rates, nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, ...) with up to
// +50% concurrency-safe jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

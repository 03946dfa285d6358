// Package forex serves exchange rates from an exchangerate-api style
// endpoint, cached for a fixed time-to-live.
package forex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/logging"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long fetched rates are served before refetching.
	DefaultTTL = time.Hour

	// FetchTimeout bounds one shared upstream fetch.
	FetchTimeout = 15 * time.Second
)

// ErrUnknownCurrency is returned by Convert for a currency missing from the rate table.
var ErrUnknownCurrency = errors.New("unknown currency")

// Rates is one rate table: how many units of each currency buy one unit of Base.
type Rates struct {
	Base        string                     `json:"base"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// Rate returns the rate for code, treating the base currency as 1.
func (r *Rates) Rate(code string) (decimal.Decimal, bool) {
	code = strings.ToUpper(code)
	if code == r.Base {
		return decimal.NewFromInt(1), true
	}
	v, ok := r.Rates[code]
	return v, ok
}

// MarshalJSON writes rates as plain JSON numbers.
func (r *Rates) MarshalJSON() ([]byte, error) {
	rates := make(map[string]json.Number, len(r.Rates))
	for code, v := range r.Rates {
		rates[code] = json.Number(v.String())
	}
	return json.Marshal(struct {
		Base        string                 `json:"base"`
		Rates       map[string]json.Number `json:"rates"`
		LastUpdated time.Time              `json:"last_updated"`
	}{r.Base, rates, r.LastUpdated})
}

// Fetcher retrieves a fresh rate table for a base currency.
type Fetcher interface {
	Fetch(ctx context.Context, base string) (*Rates, error)
}

// Service serves rate tables per base currency out of a Cache. Concurrent
// misses for the same base share a single upstream fetch.
type Service struct {
	fetcher Fetcher
	cache   Cache
	base    string
	log     logging.Logger

	group singleflight.Group
}

// NewService creates a Service. A nil cache gets a TTLCache with DefaultTTL.
func NewService(fetcher Fetcher, base string, cache Cache, logger logging.Logger) *Service {
	if cache == nil {
		cache = NewTTLCache(DefaultTTL, nil)
	}
	if base == "" {
		base = "USD"
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		base:    strings.ToUpper(base),
		log:     logger,
	}
}

// Latest returns the rate table for the configured base currency.
func (s *Service) Latest(ctx context.Context) (*Rates, error) {
	return s.For(ctx, s.base)
}

// For returns the rate table for base, fetching it when the cached copy is
// missing or older than the TTL. The fetch is shared by concurrent callers,
// so it does not inherit any one caller's cancellation.
func (s *Service) For(ctx context.Context, base string) (*Rates, error) {
	base = strings.ToUpper(base)

	if cached, ok := s.cache.Get(base); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(base, func() (interface{}, error) {
		if cached, ok := s.cache.Get(base); ok {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		rates, err := s.fetcher.Fetch(fetchCtx, base)
		if err != nil {
			return nil, err
		}
		s.cache.Put(base, rates)
		s.log.Info("Fetched exchange rates",
			logging.F(logging.FieldCurrency, base),
			logging.F(logging.FieldCount, len(rates.Rates)))
		return rates, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s rates: %w", base, err)
	}
	return v.(*Rates), nil
}

// Convert converts amount between two currencies through the base table.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	rates, err := s.Latest(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	fromRate, ok := rates.Rate(from)
	if !ok || fromRate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := rates.Rate(to)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}

	return amount.Mul(toRate).DivRound(fromRate, 6), nil
}

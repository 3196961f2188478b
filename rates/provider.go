package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one immutable fetch of exchange rates relative to the base
// currency. The base currency's own rate is always exactly 1; all rates
// are strictly positive. A refresh produces a new Snapshot, never a
// mutation of an existing one.
type Snapshot struct {
	Rates     map[Currency]decimal.Decimal
	FetchedAt time.Time
}

// Rate returns the rate for code relative to the base currency.
func (s Snapshot) Rate(code Currency) (decimal.Decimal, error) {
	r, ok := s.Rates[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}
	return r, nil
}

// Provider supplies exchange rate snapshots. Implementations must be safe
// for concurrent use. Failures wrap ErrRateUnavailable.
type Provider interface {
	Rates(ctx context.Context) (Snapshot, error)
}

// StaticProvider serves a fixed rate table. It never fails and is the
// default when no feed is configured.
type StaticProvider struct {
	snapshot Snapshot
}

// NewStaticProvider returns a provider over the built-in rate table.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		snapshot: Snapshot{
			Rates: map[Currency]decimal.Decimal{
				USD: decimal.NewFromInt(1),
				EUR: decimal.RequireFromString("0.92"),
				GBP: decimal.RequireFromString("0.79"),
				EGP: decimal.RequireFromString("48.50"),
				SAR: decimal.RequireFromString("3.75"),
			},
			FetchedAt: time.Now(),
		},
	}
}

func (p *StaticProvider) Rates(ctx context.Context) (Snapshot, error) {
	return p.snapshot, nil
}

// FeedProvider fetches rates from a JSON feed of the form
// {"base":"USD","rates":{"EUR":"0.92",...}}. Rates arrive as strings to
// avoid float decoding loss.
type FeedProvider struct {
	url    string
	client *http.Client
}

// NewFeedProvider returns a provider over the given feed URL.
func NewFeedProvider(url string) *FeedProvider {
	return &FeedProvider{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (p *FeedProvider) Rates(ctx context.Context) (Snapshot, error) {
	type response struct {
		Base  string            `json:"base"`
		Rates map[string]string `json:"rates"`
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: building request: %v", ErrRateUnavailable, err)
	}
	httpResponse, err := p.client.Do(request)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%w: feed returned %d", ErrRateUnavailable, httpResponse.StatusCode)
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading body: %v", ErrRateUnavailable, err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding json: %v", ErrRateUnavailable, err)
	}

	snapshot := Snapshot{
		Rates:     make(map[Currency]decimal.Decimal, len(resp.Rates)),
		FetchedAt: time.Now(),
	}
	for code, raw := range resp.Rates {
		if !IsSupported(Currency(code)) {
			continue
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: bad rate value for %s: %v", ErrRateUnavailable, code, err)
		}
		if rate.Sign() <= 0 {
			return Snapshot{}, fmt.Errorf("%w: non-positive rate for %s", ErrRateUnavailable, code)
		}
		snapshot.Rates[Currency(code)] = rate
	}

	// The base rate is definitional, not the feed's to decide.
	snapshot.Rates[Base] = decimal.NewFromInt(1)

	for _, info := range Supported() {
		if _, ok := snapshot.Rates[info.Code]; !ok {
			return Snapshot{}, fmt.Errorf("%w: feed missing %s", ErrRateUnavailable, info.Code)
		}
	}

	return snapshot, nil
}

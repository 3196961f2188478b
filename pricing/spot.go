package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amotaal/galla-gold-next-sub003/rates"
)

// SpotSource supplies the current gold spot price in USD per troy ounce.
// The spot price is an external, time-varying market input; production
// deployments must wire a live feed, the static source exists for
// development and tests. Failures wrap rates.ErrRateUnavailable.
type SpotSource interface {
	SpotPrice(ctx context.Context) (decimal.Decimal, error)
}

// StaticSpotSource serves a fixed ounce price.
type StaticSpotSource struct {
	price decimal.Decimal
}

// NewStaticSpotSource returns a source pinned to price USD per troy ounce.
func NewStaticSpotSource(price decimal.Decimal) *StaticSpotSource {
	return &StaticSpotSource{price: price}
}

func (s *StaticSpotSource) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.price, nil
}

// FeedSpotSource fetches the ounce price from a JSON feed of the form
// {"price":"2350.25"}.
type FeedSpotSource struct {
	url    string
	client *http.Client
}

// NewFeedSpotSource returns a source over the given feed URL.
func NewFeedSpotSource(url string) *FeedSpotSource {
	return &FeedSpotSource{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *FeedSpotSource) SpotPrice(ctx context.Context) (decimal.Decimal, error) {
	type response struct {
		Price string `json:"price"`
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: building request: %v", rates.ErrRateUnavailable, err)
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", rates.ErrRateUnavailable, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: spot feed returned %d", rates.ErrRateUnavailable, httpResponse.StatusCode)
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: reading body: %v", rates.ErrRateUnavailable, err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: decoding json: %v", rates.ErrRateUnavailable, err)
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: bad spot price: %v", rates.ErrRateUnavailable, err)
	}
	if price.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: non-positive spot price", rates.ErrRateUnavailable)
	}

	return price, nil
}

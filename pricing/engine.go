package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/amotaal/galla-gold-next-sub003/config"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

// GramsPerTroyOunce converts the market ounce price to grams.
var GramsPerTroyOunce = decimal.RequireFromString("31.1034768")

var (
	// ErrInvalidAmount is returned for non-positive gram amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidDeliveryType is returned for an unknown delivery type.
	ErrInvalidDeliveryType = errors.New("unknown delivery type")
)

// DeliveryType is the physical delivery service level.
type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
	DeliveryInsured  DeliveryType = "insured"
)

const (
	// deliveryIncrementGrams is the weight step above the threshold that
	// accrues one surcharge increment.
	deliveryIncrementGrams = 100
	// deliveryThresholdGrams is the weight delivered at base cost alone.
	deliveryThresholdGrams = 100
)

// deliverySurchargePerIncrement is the USD fee per started 100g above the
// threshold.
var deliverySurchargePerIncrement = decimal.NewFromInt(10)

// GoldQuote is a derived buy or sell price breakdown. Quotes are computed
// on demand from the current spot price and never persisted.
type GoldQuote struct {
	Grams         decimal.Decimal `json:"grams"`
	PricePerGram  decimal.Decimal `json:"price_per_gram"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Fee           decimal.Decimal `json:"fee"`
	FeePercentage decimal.Decimal `json:"fee_percentage"`
	Total         decimal.Decimal `json:"total"`
	Currency      rates.Currency  `json:"currency"`
}

// DeliveryQuote is the cost of physically delivering gold. BaseCost is the
// USD figure before currency conversion, surcharge included.
type DeliveryQuote struct {
	Grams        decimal.Decimal `json:"grams"`
	DeliveryType DeliveryType    `json:"delivery_type"`
	BaseCost     decimal.Decimal `json:"base_cost"`
	Cost         decimal.Decimal `json:"cost"`
	Currency     rates.Currency  `json:"currency"`
}

// Engine derives gold prices and quote breakdowns in any supported
// currency. All methods are pure aside from the rate and spot fetches,
// so the engine is safe under unbounded concurrency.
type Engine struct {
	spot      SpotSource
	converter *rates.Converter
	fees      config.FeeSchedule
}

// NewEngine returns an Engine over the given spot source, converter and
// fee policy.
func NewEngine(spot SpotSource, converter *rates.Converter, fees config.FeeSchedule) *Engine {
	return &Engine{
		spot:      spot,
		converter: converter,
		fees:      fees,
	}
}

// PricePerGram returns the current gold price per gram in currency,
// rounded to 2 decimal places.
func (e *Engine) PricePerGram(ctx context.Context, currency rates.Currency) (decimal.Decimal, error) {
	if !rates.IsSupported(currency) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", rates.ErrInvalidCurrency, currency)
	}

	ouncePrice, err := e.spot.SpotPrice(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	gramPriceUSD := ouncePrice.Div(GramsPerTroyOunce)

	return e.converter.Convert(ctx, gramPriceUSD, rates.USD, currency)
}

// QuoteBuy prices a purchase of grams of gold. The fee is added on top of
// the subtotal.
func (e *Engine) QuoteBuy(ctx context.Context, grams decimal.Decimal, currency rates.Currency) (GoldQuote, error) {
	return e.quote(ctx, grams, currency, e.fees.BuyFeePercent, true)
}

// QuoteSell prices a sale of grams of gold. The fee is deducted from the
// subtotal. The sell fee schedule is independent of the buy schedule.
func (e *Engine) QuoteSell(ctx context.Context, grams decimal.Decimal, currency rates.Currency) (GoldQuote, error) {
	return e.quote(ctx, grams, currency, e.fees.SellFeePercent, false)
}

func (e *Engine) quote(ctx context.Context, grams decimal.Decimal, currency rates.Currency, feePct decimal.Decimal, buy bool) (GoldQuote, error) {
	if !rates.IsSupported(currency) {
		return GoldQuote{}, fmt.Errorf("%w: %s", rates.ErrInvalidCurrency, currency)
	}
	if grams.Sign() <= 0 {
		return GoldQuote{}, fmt.Errorf("%w: %s grams", ErrInvalidAmount, grams)
	}

	pricePerGram, err := e.PricePerGram(ctx, currency)
	if err != nil {
		return GoldQuote{}, err
	}

	subtotal := grams.Mul(pricePerGram).Round(2)
	fee := subtotal.Mul(feePct).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(fee)
	if !buy {
		total = subtotal.Sub(fee)
	}

	return GoldQuote{
		Grams:         grams,
		PricePerGram:  pricePerGram,
		Subtotal:      subtotal,
		Fee:           fee,
		FeePercentage: feePct,
		Total:         total,
		Currency:      currency,
	}, nil
}

// QuoteDelivery prices physical delivery of grams of gold. Above 100g,
// each started 100g adds a 10 USD surcharge: exactly 100g ships at base
// cost, 100.01g already incurs one full increment.
func (e *Engine) QuoteDelivery(ctx context.Context, grams decimal.Decimal, deliveryType DeliveryType, currency rates.Currency) (DeliveryQuote, error) {
	if !rates.IsSupported(currency) {
		return DeliveryQuote{}, fmt.Errorf("%w: %s", rates.ErrInvalidCurrency, currency)
	}
	if grams.Sign() <= 0 {
		return DeliveryQuote{}, fmt.Errorf("%w: %s grams", ErrInvalidAmount, grams)
	}

	var base decimal.Decimal
	switch deliveryType {
	case DeliveryStandard:
		base = e.fees.DeliveryCost.Standard
	case DeliveryExpress:
		base = e.fees.DeliveryCost.Express
	case DeliveryInsured:
		base = e.fees.DeliveryCost.Insured
	default:
		return DeliveryQuote{}, fmt.Errorf("%w: %s", ErrInvalidDeliveryType, deliveryType)
	}

	threshold := decimal.NewFromInt(deliveryThresholdGrams)
	baseCost := base
	if grams.GreaterThan(threshold) {
		increments := grams.Sub(threshold).Div(decimal.NewFromInt(deliveryIncrementGrams)).Ceil()
		baseCost = baseCost.Add(increments.Mul(deliverySurchargePerIncrement))
	}

	cost, err := e.converter.Convert(ctx, baseCost, rates.USD, currency)
	if err != nil {
		return DeliveryQuote{}, err
	}

	return DeliveryQuote{
		Grams:        grams,
		DeliveryType: deliveryType,
		BaseCost:     baseCost,
		Cost:         cost,
		Currency:     currency,
	}, nil
}

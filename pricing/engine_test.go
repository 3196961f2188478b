package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amotaal/galla-gold-next-sub003/config"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

func testFees() config.FeeSchedule {
	return config.FeeSchedule{
		BuyFeePercent:  decimal.RequireFromString("2"),
		SellFeePercent: decimal.RequireFromString("1.5"),
		DeliveryCost: config.DeliveryCosts{
			Standard: decimal.RequireFromString("25"),
			Express:  decimal.RequireFromString("40"),
			Insured:  decimal.RequireFromString("60"),
		},
	}
}

func testEngine(ouncePrice string) *Engine {
	spot := NewStaticSpotSource(decimal.RequireFromString(ouncePrice))
	converter := rates.NewConverter(rates.NewStaticProvider())
	return NewEngine(spot, converter, testFees())
}

func TestPricePerGram(t *testing.T) {
	engine := testEngine("2000")

	price, err := engine.PricePerGram(context.Background(), rates.USD)
	require.NoError(t, err)
	// 2000 / 31.1034768 = 64.3015...
	assert.True(t, price.Equal(decimal.RequireFromString("64.30")), "got %s", price)

	_, err = engine.PricePerGram(context.Background(), "XAU")
	assert.ErrorIs(t, err, rates.ErrInvalidCurrency)
}

func TestQuoteBuyInvariants(t *testing.T) {
	engine := testEngine("2350")

	for _, grams := range []string{"0.01", "1", "2.5", "100", "999.999"} {
		quote, err := engine.QuoteBuy(context.Background(), decimal.RequireFromString(grams), rates.EUR)
		require.NoError(t, err)

		assert.True(t, quote.Total.Equal(quote.Subtotal.Add(quote.Fee)),
			"total must be subtotal+fee for %s grams", grams)
		assert.True(t, quote.Fee.Equal(
			quote.Subtotal.Mul(quote.FeePercentage).Div(decimal.NewFromInt(100)).Round(2)))
		assert.Equal(t, rates.EUR, quote.Currency)
	}
}

func TestQuoteSellInvariants(t *testing.T) {
	engine := testEngine("2350")

	quote, err := engine.QuoteSell(context.Background(), decimal.NewFromInt(10), rates.USD)
	require.NoError(t, err)

	assert.True(t, quote.Total.Equal(quote.Subtotal.Sub(quote.Fee)), "sell total must be subtotal-fee")
	assert.True(t, quote.FeePercentage.Equal(decimal.RequireFromString("1.5")),
		"sell quotes use the sell fee schedule")
}

func TestQuoteBuyAndSellFeesDiffer(t *testing.T) {
	engine := testEngine("2350")
	grams := decimal.NewFromInt(10)

	buy, err := engine.QuoteBuy(context.Background(), grams, rates.USD)
	require.NoError(t, err)
	sell, err := engine.QuoteSell(context.Background(), grams, rates.USD)
	require.NoError(t, err)

	assert.False(t, buy.FeePercentage.Equal(sell.FeePercentage))
	assert.True(t, buy.Subtotal.Equal(sell.Subtotal))
}

func TestQuoteInvalidInputs(t *testing.T) {
	engine := testEngine("2350")

	_, err := engine.QuoteBuy(context.Background(), decimal.Zero, rates.USD)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.QuoteSell(context.Background(), decimal.NewFromInt(-5), rates.USD)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.QuoteBuy(context.Background(), decimal.NewFromInt(1), "DOGE")
	assert.ErrorIs(t, err, rates.ErrInvalidCurrency)
}

func TestQuoteDeliverySurcharge(t *testing.T) {
	engine := testEngine("2350")

	tests := []struct {
		grams        string
		deliveryType DeliveryType
		baseCost     string
	}{
		{"50", DeliveryStandard, "25"},
		{"100", DeliveryStandard, "25"},   // exactly at the threshold, no surcharge
		{"100.01", DeliveryStandard, "35"}, // one full increment, not proportional
		{"150", DeliveryStandard, "35"},
		{"200", DeliveryStandard, "35"},
		{"201", DeliveryStandard, "45"},
		{"100", DeliveryExpress, "40"},
		{"150", DeliveryInsured, "70"},
	}

	for _, tt := range tests {
		quote, err := engine.QuoteDelivery(context.Background(),
			decimal.RequireFromString(tt.grams), tt.deliveryType, rates.USD)
		require.NoError(t, err)
		assert.True(t, quote.BaseCost.Equal(decimal.RequireFromString(tt.baseCost)),
			"%s grams %s: expected %s got %s", tt.grams, tt.deliveryType, tt.baseCost, quote.BaseCost)
		assert.True(t, quote.Cost.Equal(quote.BaseCost), "USD delivery converts 1:1")
	}
}

func TestQuoteDeliveryConverts(t *testing.T) {
	engine := testEngine("2350")

	quote, err := engine.QuoteDelivery(context.Background(), decimal.NewFromInt(50), DeliveryStandard, rates.SAR)
	require.NoError(t, err)
	// 25 USD * 3.75
	assert.True(t, quote.Cost.Equal(decimal.RequireFromString("93.75")), "got %s", quote.Cost)
	assert.True(t, quote.BaseCost.Equal(decimal.RequireFromString("25")), "base cost stays in USD")
}

func TestQuoteDeliveryInvalidInputs(t *testing.T) {
	engine := testEngine("2350")

	_, err := engine.QuoteDelivery(context.Background(), decimal.NewFromInt(10), "overnight", rates.USD)
	assert.ErrorIs(t, err, ErrInvalidDeliveryType)

	_, err = engine.QuoteDelivery(context.Background(), decimal.Zero, DeliveryStandard, rates.USD)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.QuoteDelivery(context.Background(), decimal.NewFromInt(10), DeliveryStandard, "XAU")
	assert.ErrorIs(t, err, rates.ErrInvalidCurrency)
}

func TestDeliveryCostsStrictlyIncrease(t *testing.T) {
	fees := testFees()
	assert.True(t, fees.DeliveryCost.Standard.LessThan(fees.DeliveryCost.Express))
	assert.True(t, fees.DeliveryCost.Express.LessThan(fees.DeliveryCost.Insured))
}

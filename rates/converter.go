package rates

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Converter converts amounts between supported currencies through the
// base currency. Amounts are rounded to 2 decimal places at the point of
// being reported; intermediate math keeps full precision.
type Converter struct {
	provider Provider
}

// NewConverter returns a Converter over the given rate provider.
func NewConverter(provider Provider) *Converter {
	return &Converter{provider: provider}
}

// Convert converts amount from one currency to another. Identity
// conversions short-circuit without consulting the provider.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to Currency) (decimal.Decimal, error) {
	if !IsSupported(from) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, from)
	}
	if !IsSupported(to) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, to)
	}
	if from == to {
		return amount.Round(2), nil
	}

	snapshot, err := c.provider.Rates(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rateFrom, err := snapshot.Rate(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rateTo, err := snapshot.Rate(to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return amount.Div(rateFrom).Mul(rateTo).Round(2), nil
}

// Rate returns the cross rate from one currency to another. For the
// identity pair it returns 1 without consulting the provider.
func (c *Converter) Rate(ctx context.Context, from, to Currency) (decimal.Decimal, error) {
	if !IsSupported(from) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, from)
	}
	if !IsSupported(to) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, to)
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	snapshot, err := c.provider.Rates(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rateFrom, err := snapshot.Rate(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rateTo, err := snapshot.Rate(to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return rateTo.Div(rateFrom), nil
}

var printer = message.NewPrinter(language.English)

// FormatCurrency renders amount with the currency's symbol at fiat
// precision, e.g. "$1,234.56".
func FormatCurrency(amount decimal.Decimal, code Currency) (string, error) {
	info, err := Info(code)
	if err != nil {
		return "", err
	}
	f, _ := amount.Float64()
	return printer.Sprintf("%s%v", info.Symbol,
		number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2))), nil
}

// FormatGold renders a gram weight with 2 to 6 fractional digits. Gold is
// priced in fractions of a gram, so sub-cent precision is kept.
func FormatGold(grams decimal.Decimal) string {
	f, _ := grams.Float64()
	return printer.Sprintf("%vg",
		number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(6)))
}

// FormatPercentage renders a percentage at 2 fractional digits.
func FormatPercentage(pct decimal.Decimal) string {
	return pct.Round(2).StringFixed(2) + "%"
}

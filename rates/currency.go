package rates

import (
	"errors"
	"fmt"
)

// Currency is a supported currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	EGP Currency = "EGP"
	SAR Currency = "SAR"
)

// Base is the currency all rates are expressed against, 1:rate.
const Base = USD

var (
	// ErrInvalidCurrency is returned for a code outside the supported set.
	ErrInvalidCurrency = errors.New("currency not supported")
	// ErrRateUnavailable is returned when the rate provider cannot supply
	// a snapshot.
	ErrRateUnavailable = errors.New("exchange rates unavailable")
)

// CurrencyInfo is display metadata for a supported currency.
type CurrencyInfo struct {
	Code   Currency `json:"code"`
	Symbol string   `json:"symbol"`
	Name   string   `json:"name"`
}

var currencies = map[Currency]CurrencyInfo{
	USD: {Code: USD, Symbol: "$", Name: "US Dollar"},
	EUR: {Code: EUR, Symbol: "€", Name: "Euro"},
	GBP: {Code: GBP, Symbol: "£", Name: "British Pound"},
	EGP: {Code: EGP, Symbol: "E£", Name: "Egyptian Pound"},
	SAR: {Code: SAR, Symbol: "SR", Name: "Saudi Riyal"},
}

// Supported returns the fixed set of supported currencies.
func Supported() []CurrencyInfo {
	out := make([]CurrencyInfo, 0, len(currencies))
	for _, c := range []Currency{USD, EUR, GBP, EGP, SAR} {
		out = append(out, currencies[c])
	}
	return out
}

// IsSupported reports whether code is in the supported set.
func IsSupported(code Currency) bool {
	_, ok := currencies[code]
	return ok
}

// Info returns display metadata for code.
func Info(code Currency) (CurrencyInfo, error) {
	info, ok := currencies[code]
	if !ok {
		return CurrencyInfo{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}
	return info, nil
}

package quote

import "strings"

// RateSource resolves an exchange rate for a currency pair. Pluggable so a
// live feed can replace the static table without touching the resolver.
type RateSource interface {
	Rate(from, to string) (float64, bool)
}

// StaticRates is a fixed exchange-rate table keyed "FROM/TO".
type StaticRates map[string]float64

func (s StaticRates) Rate(from, to string) (float64, bool) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return 1, true
	}
	if rate, ok := s[from+"/"+to]; ok {
		return rate, true
	}
	// Derive the inverse pair when only one direction is tabled.
	if rate, ok := s[to+"/"+from]; ok && rate != 0 {
		return 1 / rate, true
	}
	return 0, false
}

// DefaultRates covers the currency pairs the connected properties trade in.
func DefaultRates() StaticRates {
	return StaticRates{
		"USD/EUR": 0.92,
		"GBP/EUR": 1.17,
		"CHF/EUR": 1.06,
		"CZK/EUR": 0.041,
		"PLN/EUR": 0.23,
		"HUF/EUR": 0.0025,
	}
}

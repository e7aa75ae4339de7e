package extract

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizePrice converts whatever shape a source reports a price in to
// integer minor units. Integers are already minor units; floats are major
// units; strings are major units, optionally prefixed with a currency
// symbol and containing thousands separators. Anything ambiguous returns
// nil rather than a guess.
func NormalizePrice(v any) *int64 {
	switch p := v.(type) {
	case nil:
		return nil
	case int:
		return minorUnits(int64(p))
	case int64:
		return minorUnits(p)
	case float64:
		return fromMajor(decimal.NewFromFloat(p))
	case json.Number:
		s := p.String()
		if !strings.ContainsAny(s, ".eE") {
			n, err := p.Int64()
			if err != nil {
				return nil
			}
			return minorUnits(n)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return fromMajor(d)
	case string:
		return fromPriceString(p)
	default:
		return nil
	}
}

var currencySymbols = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", ",", "", " ", "",
)

func fromPriceString(s string) *int64 {
	s = currencySymbols.Replace(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return fromMajor(d)
}

func fromMajor(d decimal.Decimal) *int64 {
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return minorUnits(cents)
}

func minorUnits(n int64) *int64 {
	if n < 0 {
		return nil
	}
	return &n
}

package currency

import (
	"testing"

	"HackathonSync/internal/model"
	"HackathonSync/internal/normalizer"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		in   model.PrizePool
		want string
	}{
		{"rupee", model.PrizePool{DisplayText: "₹15,000", NumericValue: 15000, CurrencySymbol: "₹", Kind: model.PrizeMonetary}, "₹15,000"},
		{"dollar", model.PrizePool{DisplayText: "$1234567", NumericValue: 1234567, CurrencySymbol: "$", Kind: model.PrizeMonetary}, "$1,234,567"},
		{"dollar cents", model.PrizePool{NumericValue: 2500.5, CurrencySymbol: "$", Kind: model.PrizeMonetary}, "$2,500.5"},
		{"no symbol keeps text", model.PrizePool{DisplayText: "5000", NumericValue: 5000, Kind: model.PrizeMonetary}, "5000"},
		{"no symbol no text", model.PrizePool{NumericValue: 5000, Kind: model.PrizeMonetary}, "5,000"},
		{"zero", model.PrizePool{DisplayText: "$0.00", CurrencySymbol: "$", Kind: model.PrizeZero}, "$0"},
		{"non cash", model.PrizePool{DisplayText: "Swag & Certificates", Kind: model.PrizeNonCash}, "Swag & Certificates"},
		{"unknown", model.PrizePool{Kind: model.PrizeUnknown}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.in))
		})
	}
}

func TestFormatNeverSubstitutesSymbol(t *testing.T) {
	for _, sym := range normalizer.CurrencySymbols {
		p := normalizer.NormalizePrize(normalizer.String(sym + "15,000"))
		got := Format(p)
		assert.True(t, len(got) > len(sym) && got[:len(sym)] == sym, "%s -> %s", sym, got)
		for _, other := range normalizer.CurrencySymbols {
			if other != sym {
				assert.NotContains(t, got, other)
			}
		}
	}
}

func TestFormatKeepsCurrencyCodes(t *testing.T) {
	for in, want := range map[string]string{
		"USD 5,000":  "USD 5,000",
		"Rs. 50,000": "Rs. 50,000",
		"5000 EUR":   "5000 EUR",
		"INR 2 lakh": "INR 2 lakh",
	} {
		p := normalizer.NormalizePrize(normalizer.String(in))
		assert.Equal(t, model.PrizeMonetary, p.Kind, in)
		assert.Equal(t, want, Format(p), in)
	}
}

func TestSortKey(t *testing.T) {
	assert.Equal(t, 15000.0, SortKey(model.PrizePool{NumericValue: 15000, CurrencySymbol: "₹", Kind: model.PrizeMonetary}))
	assert.Equal(t, 0.0, SortKey(model.PrizePool{DisplayText: "Swag", Kind: model.PrizeNonCash}))
	assert.True(t, HasPrize(model.PrizePool{NumericValue: 1, Kind: model.PrizeMonetary}))
	assert.False(t, HasPrize(model.PrizePool{Kind: model.PrizeZero}))
}

package rules

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	assert.NoError(t, err)

	assert.Equal(t, "BGN", r.HomeCurrency)
	assert.Equal(t, "2000-01-01", r.OpeningBalanceDay.Format("2006-01-02"))

	tests := []struct {
		aceID string
		code  string
		units int64
	}{
		{"155", "BGN", 100},
		{"43", "EUR", 100},
		{"63", "JPY", 1},
		{"140", "USD", 100},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			code, err := r.Currency(tt.aceID)
			assert.NoError(t, err)
			assert.Equal(t, tt.code, code)

			units, err := r.Units(code)
			assert.NoError(t, err)
			assert.Equal(t, tt.units, units)
		})
	}

	assert.Equal(t, "1.95583", r.DefaultRates()["EUR"].String())
	assert.Equal(t, "1", r.DefaultRates()["BGN"].String())
}

func TestUnknownCurrency(t *testing.T) {
	r, err := Default()
	assert.NoError(t, err)

	_, err = r.Currency("999")
	var unsupported *acemoney.UnsupportedCurrencyError
	assert.True(t, errors.As(err, &unsupported), "expected UnsupportedCurrencyError, got %v", err)
	assert.Equal(t, "999", unsupported.Code)

	_, err = r.Units("XAU")
	assert.True(t, errors.As(err, &unsupported), "expected UnsupportedCurrencyError for XAU, got %v", err)
}

func TestParseCategorySets(t *testing.T) {
	r, err := Parse([]byte(`
home_currency: USD
opening_balance_day: "2010-06-01"
currencies:
  - {code: USD, ace_id: "140", units: 100}
income_category_ids: ["5", "6"]
opening_balance_category_ids: ["9"]
`))
	assert.NoError(t, err)

	assert.True(t, r.IsIncomeCategory("5"))
	assert.False(t, r.IsIncomeCategory("7"))
	assert.True(t, r.IsOpeningBalanceCategory("9"))
	assert.False(t, r.IsOpeningBalanceCategory("5"))
	assert.Equal(t, "UTC", r.Location.String())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"home not listed", "home_currency: EUR\nopening_balance_day: \"2000-01-01\"\ncurrencies: [{code: USD, units: 100}]"},
		{"bad day", "home_currency: USD\nopening_balance_day: \"01/01/2000\"\ncurrencies: [{code: USD, units: 100}]"},
		{"zero units", "home_currency: USD\nopening_balance_day: \"2000-01-01\"\ncurrencies: [{code: USD, units: 0}]"},
		{"bad rate", "home_currency: USD\nopening_balance_day: \"2000-01-01\"\ncurrencies: [{code: USD, units: 100}, {code: EUR, units: 100, default_rate: abc}]"},
		{"duplicate", "home_currency: USD\nopening_balance_day: \"2000-01-01\"\ncurrencies: [{code: USD, units: 100}, {code: USD, units: 100}]"},
		{"bad timezone", "home_currency: USD\nopening_balance_day: \"2000-01-01\"\ntimezone: Mars/Base\ncurrencies: [{code: USD, units: 100}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

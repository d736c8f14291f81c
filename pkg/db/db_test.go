package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "ace2gnc.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func rate(currency, day, value string) fx.Rate {
	d, err := time.Parse(dayLayout, day)
	if err != nil {
		panic(err)
	}
	return fx.Rate{Currency: currency, Day: d, Value: decimal.RequireFromString(value)}
}

// rateStrings renders rates as "CUR day value" so decimals compare by value.
func rateStrings(rates []fx.Rate) []string {
	l := make([]string, 0, len(rates))
	for _, r := range rates {
		l = append(l, r.Currency+" "+r.Day.Format(dayLayout)+" "+r.Value.String())
	}
	return l
}

func TestRateStore(t *testing.T) {
	store := NewRateStore(openTestDB(t))

	n, err := store.UpsertRates([]fx.Rate{
		rate("USD", "2020-02-01", "1.78"),
		rate("USD", "2020-01-01", "1.76"),
		rate("EUR", "2020-01-01", "1.95583"),
	}, "test")
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	// replaces the stored USD rate for January
	_, err = store.UpsertRates([]fx.Rate{rate("USD", "2020-01-01", "1.7712345")}, "bnb")
	assert.NoError(t, err)

	rates, err := store.ListRates("")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"EUR 2020-01-01 1.95583",
		"USD 2020-01-01 1.7712345",
		"USD 2020-02-01 1.78",
	}, rateStrings(rates))

	usd, err := store.ListRates("USD")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(usd))

	count, err := store.Count()
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRateStoreLatestDay(t *testing.T) {
	store := NewRateStore(openTestDB(t))

	_, ok, err := store.LatestDay("USD")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = store.UpsertRates([]fx.Rate{
		rate("USD", "2020-01-01", "1.76"),
		rate("USD", "2021-06-01", "1.60"),
		rate("EUR", "2022-01-01", "1.95583"),
	}, "test")
	assert.NoError(t, err)

	day, ok, err := store.LatestDay("USD")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2021-06-01", day.Format(dayLayout))
}

func TestHistory(t *testing.T) {
	conn := openTestDB(t)
	history := NewHistory(conn)

	for i, out := range []string{"first.gnucash", "second.gnucash"} {
		id, err := history.RecordConversion(ConversionRecord{
			InputFile:    "export.xml",
			OutputFile:   out,
			Accounts:     3,
			Categories:   10,
			Transactions: 100 + i,
			Prices:       2,
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	records, err := history.ListConversions(1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(records))
	assert.Equal(t, "second.gnucash", records[0].OutputFile)
	assert.Equal(t, 101, records[0].Transactions)

	_, err = NewRateStore(conn).UpsertRates([]fx.Rate{
		rate("USD", "2020-01-01", "1.76"),
		rate("EUR", "2020-01-01", "1.95583"),
		rate("EUR", "2020-02-01", "1.95583"),
	}, "test")
	assert.NoError(t, err)

	stats, err := history.GetStats()
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRates)
	assert.Equal(t, 2, stats.RateCurrencies)
	assert.Equal(t, 2, stats.TotalConversions)
	assert.True(t, stats.LastConversion.Valid)
}

func TestMetadata(t *testing.T) {
	history := NewHistory(openTestDB(t))

	value, err := history.GetMetadata("last_input")
	assert.NoError(t, err)
	assert.Equal(t, "", value)

	for _, v := range []string{"a.xml", "b.xml"} {
		assert.NoError(t, history.SetMetadata("last_input", v))
	}

	value, err = history.GetMetadata("last_input")
	assert.NoError(t, err)
	assert.Equal(t, "b.xml", value)
}

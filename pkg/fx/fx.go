// Package fx provides the foreign-exchange table used to express foreign
// amounts in the home currency.
package fx

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one row of an externally supplied, day-stamped rate list.
// Value is home-currency units per one unit of Currency.
type Rate struct {
	Currency string
	Day      time.Time
	Value    decimal.Decimal
}

// Key identifies a cached rate: a currency and the first day of a month.
type Key struct {
	Currency string
	Month    time.Time
}

// Entry is a cached rate.
type Entry struct {
	Key
	Rate decimal.Decimal
}

// Table resolves FX rates with month granularity. The cache is filled once
// by Init and is read-only afterwards.
type Table struct {
	home     string
	defaults map[string]decimal.Decimal
	logger   *slog.Logger

	once  sync.Once
	cache map[Key]decimal.Decimal
}

// NewTable creates a Table for the given home currency. defaults holds the
// fallback rate of every supported currency.
func NewTable(home string, defaults map[string]decimal.Decimal) *Table {
	return &Table{
		home:     home,
		defaults: defaults,
		logger:   slog.Default(),
		cache:    make(map[Key]decimal.Decimal),
	}
}

// SetLogger replaces the logger used for warnings.
func (t *Table) SetLogger(logger *slog.Logger) {
	t.logger = logger
}

// MonthOf truncates a day to the first day of its month, in UTC.
func MonthOf(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Init fills the cache. The month of openingDay is seeded with the default
// rate of every foreign currency; rates then adds or overrides entries.
// A nil rates list leaves only the seeded entries. Only the first call has
// any effect.
func (t *Table) Init(rates []Rate, openingDay time.Time) {
	t.once.Do(func() {
		opening := MonthOf(openingDay)
		for currency, rate := range t.defaults {
			if currency == t.home {
				continue
			}
			t.cache[Key{currency, opening}] = rate
		}

		for _, r := range rates {
			if r.Currency == t.home {
				continue
			}
			if _, ok := t.defaults[r.Currency]; !ok {
				t.logger.Warn("Ignoring rate for unconfigured currency", "currency", r.Currency, "day", r.Day.Format("2006-01-02"))
				continue
			}
			if !r.Value.IsPositive() {
				t.logger.Warn("Ignoring non-positive rate", "currency", r.Currency, "day", r.Day.Format("2006-01-02"), "rate", r.Value.String())
				continue
			}
			t.cache[Key{r.Currency, MonthOf(r.Day)}] = r.Value
		}

		t.logger.Debug("FX table initialized", "entries", len(t.cache), "supplied", len(rates))
	})
}

// Rate returns the rate of currency on day. The home currency is always 1.
// A month missing from the cache falls back to the currency's default.
func (t *Table) Rate(currency string, day time.Time) decimal.Decimal {
	if currency == t.home {
		return decimal.NewFromInt(1)
	}

	if rate, ok := t.cache[Key{currency, MonthOf(day)}]; ok {
		return rate
	}

	if rate, ok := t.defaults[currency]; ok {
		return rate
	}

	t.logger.Warn("No FX rate configured, using 1", "currency", currency)
	return decimal.NewFromInt(1)
}

// ToHome converts amount in currency on day to the home currency.
func (t *Table) ToHome(amount decimal.Decimal, currency string, day time.Time) decimal.Decimal {
	return amount.Mul(t.Rate(currency, day))
}

// Entries returns the cached rates sorted by currency, then month.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.cache))
	for k, v := range t.cache {
		entries = append(entries, Entry{Key: k, Rate: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Currency != entries[j].Currency {
			return entries[i].Currency < entries[j].Currency
		}
		return entries[i].Month.Before(entries[j].Month)
	})

	return entries
}

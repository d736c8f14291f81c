// Package rules provides the business-rule tables of the conversion: the
// currency tables, the income and opening-balance category ids, and the
// opening-balance day.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
)

//go:embed default-rules.yaml
var defaultRules []byte

// CurrencyRule describes one supported currency.
type CurrencyRule struct {
	Code        string `yaml:"code"`
	AceID       string `yaml:"ace_id"`
	Units       int64  `yaml:"units"`
	DefaultRate string `yaml:"default_rate"`
}

// File is the YAML layout of a rules file.
type File struct {
	HomeCurrency              string         `yaml:"home_currency"`
	OpeningBalanceDay         string         `yaml:"opening_balance_day"`
	Timezone                  string         `yaml:"timezone"`
	Currencies                []CurrencyRule `yaml:"currencies"`
	IncomeCategoryIDs         []string       `yaml:"income_category_ids"`
	OpeningBalanceCategoryIDs []string       `yaml:"opening_balance_category_ids"`
}

// Rules holds the lookup tables built from a rules file.
type Rules struct {
	HomeCurrency      string
	OpeningBalanceDay time.Time
	Location          *time.Location

	file             File
	aceToISO         map[string]string
	units            map[string]int64
	defaultRates     map[string]decimal.Decimal
	income           map[string]struct{}
	openingBalance   map[string]struct{}
	sortedCurrencies []string
}

// Default returns the rules embedded in the binary.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads a rules file. An empty path returns the embedded defaults.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return Parse(data)
}

// Parse builds Rules from YAML.
func Parse(data []byte) (*Rules, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return New(f)
}

// New validates f and builds its lookup tables.
func New(f File) (*Rules, error) {
	r := &Rules{
		HomeCurrency:   f.HomeCurrency,
		file:           f,
		aceToISO:       make(map[string]string, len(f.Currencies)),
		units:          make(map[string]int64, len(f.Currencies)),
		defaultRates:   make(map[string]decimal.Decimal, len(f.Currencies)),
		income:         toSet(f.IncomeCategoryIDs),
		openingBalance: toSet(f.OpeningBalanceCategoryIDs),
	}

	day, err := time.Parse(acemoney.DateLayout, f.OpeningBalanceDay)
	if err != nil {
		return nil, fmt.Errorf("invalid opening_balance_day %q: %w", f.OpeningBalanceDay, err)
	}

	loc := time.UTC
	if f.Timezone != "" {
		loc, err = time.LoadLocation(f.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", f.Timezone, err)
		}
	}
	r.Location = loc
	r.OpeningBalanceDay = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	for _, c := range f.Currencies {
		if c.Code == "" {
			return nil, fmt.Errorf("currency entry without code")
		}
		if c.Units <= 0 {
			return nil, fmt.Errorf("currency %s: units must be positive, got %d", c.Code, c.Units)
		}
		if _, dup := r.units[c.Code]; dup {
			return nil, fmt.Errorf("duplicate currency %s", c.Code)
		}

		rate := decimal.NewFromInt(1)
		if c.DefaultRate != "" {
			rate, err = decimal.NewFromString(c.DefaultRate)
			if err != nil {
				return nil, fmt.Errorf("currency %s: invalid default_rate %q: %w", c.Code, c.DefaultRate, err)
			}
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("currency %s: default_rate must be positive", c.Code)
		}

		r.units[c.Code] = c.Units
		r.defaultRates[c.Code] = rate
		if c.AceID != "" {
			r.aceToISO[c.AceID] = c.Code
		}
		r.sortedCurrencies = append(r.sortedCurrencies, c.Code)
	}
	sort.Strings(r.sortedCurrencies)

	if _, ok := r.units[r.HomeCurrency]; !ok {
		return nil, fmt.Errorf("home currency %q is not listed in currencies", r.HomeCurrency)
	}
	r.defaultRates[r.HomeCurrency] = decimal.NewFromInt(1)

	return r, nil
}

// Currency translates a numeric AceMoney currency id to its ISO code.
func (r *Rules) Currency(aceID string) (string, error) {
	code, ok := r.aceToISO[aceID]
	if !ok {
		return "", &acemoney.UnsupportedCurrencyError{Code: aceID}
	}
	return code, nil
}

// Units returns the minor-unit denominator of an ISO currency.
func (r *Rules) Units(code string) (int64, error) {
	u, ok := r.units[code]
	if !ok {
		return 0, &acemoney.UnsupportedCurrencyError{Code: code}
	}
	return u, nil
}

// DefaultRates returns a copy of the fallback FX rates keyed by ISO code.
func (r *Rules) DefaultRates() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(r.defaultRates))
	for k, v := range r.defaultRates {
		m[k] = v
	}
	return m
}

// Currencies returns the configured ISO codes in sorted order.
func (r *Rules) Currencies() []string {
	return append([]string(nil), r.sortedCurrencies...)
}

// IsIncomeCategory reports whether a category id is listed as income.
func (r *Rules) IsIncomeCategory(id string) bool {
	_, ok := r.income[id]
	return ok
}

// IsOpeningBalanceCategory reports whether transactions in a category are
// opening balances.
func (r *Rules) IsOpeningBalanceCategory(id string) bool {
	_, ok := r.openingBalance[id]
	return ok
}

// Marshal renders the effective rules as YAML.
func (r *Rules) Marshal() ([]byte, error) {
	return yaml.Marshal(r.file)
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

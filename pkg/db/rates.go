package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
)

const dayLayout = "2006-01-02"

// RateStore manages the persisted FX rate list.
type RateStore struct {
	conn *Connection
}

// NewRateStore creates a new RateStore.
func NewRateStore(conn *Connection) *RateStore {
	return &RateStore{conn: conn}
}

// UpsertRates stores rates in a single transaction. A rate for an existing
// currency and day replaces the stored one. It returns the number of rows
// written.
func (s *RateStore) UpsertRates(rates []fx.Rate, source string) (int, error) {
	query := `
		INSERT INTO fx_rates (currency, day, rate, source)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(currency, day) DO UPDATE SET
			rate = excluded.rate,
			source = excluded.source,
			imported_at = CURRENT_TIMESTAMP
	`

	err := s.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare rate upsert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rates {
			if _, err := stmt.Exec(r.Currency, r.Day.Format(dayLayout), r.Value.String(), source); err != nil {
				return fmt.Errorf("failed to store rate %s %s: %w", r.Currency, r.Day.Format(dayLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(rates), nil
}

// ListRates returns every stored rate ordered by currency, then day. An
// empty currency lists all currencies.
func (s *RateStore) ListRates(currency string) ([]fx.Rate, error) {
	query := `
		SELECT currency, day, rate FROM fx_rates
		WHERE (? = '' OR currency = ?)
		ORDER BY currency, day
	`

	rows, err := s.conn.Query(query, currency, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var rates []fx.Rate
	for rows.Next() {
		var code, day, value string
		if err := rows.Scan(&code, &day, &value); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}

		r, err := parseRate(code, day, value)
		if err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}

	return rates, nil
}

// LatestDay returns the most recent day stored for currency. ok is false
// when there is none.
func (s *RateStore) LatestDay(currency string) (day time.Time, ok bool, err error) {
	var latest sql.NullString
	err = s.conn.QueryRow(`SELECT MAX(day) FROM fx_rates WHERE currency = ?`, currency).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest rate day: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}

	day, err = time.Parse(dayLayout, latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid stored day %q: %w", latest.String, err)
	}
	return day, true, nil
}

// Count returns the number of stored rates.
func (s *RateStore) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM fx_rates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return n, nil
}

func parseRate(currency, day, value string) (fx.Rate, error) {
	d, err := time.Parse(dayLayout, day)
	if err != nil {
		return fx.Rate{}, fmt.Errorf("invalid stored day %q: %w", day, err)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return fx.Rate{}, fmt.Errorf("invalid stored rate %q: %w", value, err)
	}
	return fx.Rate{Currency: currency, Day: d, Value: v}, nil
}

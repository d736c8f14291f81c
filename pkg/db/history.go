package db

import (
	"database/sql"
	"fmt"
	"time"
)

// ConversionRecord represents one conversion run.
type ConversionRecord struct {
	ID            int64
	InputFile     string
	OutputFile    string
	Accounts      int
	Categories    int
	Transactions  int
	CrossCurrency int
	Prices        int
	ConvertedAt   time.Time
}

// History manages the conversion history and metadata.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordConversion stores a conversion run and returns its id.
func (h *History) RecordConversion(record ConversionRecord) (int64, error) {
	query := `
		INSERT INTO conversion_history
			(input_file, output_file, accounts, categories, transactions, cross_currency, prices)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := h.conn.Exec(query,
		record.InputFile,
		record.OutputFile,
		record.Accounts,
		record.Categories,
		record.Transactions,
		record.CrossCurrency,
		record.Prices,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record conversion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get conversion id: %w", err)
	}

	return id, nil
}

// ListConversions returns the most recent conversions, newest first.
func (h *History) ListConversions(limit int) ([]ConversionRecord, error) {
	query := `
		SELECT id, input_file, output_file, accounts, categories, transactions,
			cross_currency, prices, converted_at
		FROM conversion_history
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := h.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var records []ConversionRecord
	for rows.Next() {
		var r ConversionRecord
		if err := rows.Scan(
			&r.ID,
			&r.InputFile,
			&r.OutputFile,
			&r.Accounts,
			&r.Categories,
			&r.Transactions,
			&r.CrossCurrency,
			&r.Prices,
			&r.ConvertedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		records = append(records, r)
	}

	return records, nil
}

// Stats represents store statistics.
type Stats struct {
	TotalRates       int
	RateCurrencies   int
	TotalConversions int
	LastConversion   sql.NullString
}

// GetStats retrieves store statistics.
func (h *History) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT currency) FROM fx_rates`).Scan(&stats.TotalRates, &stats.RateCurrencies)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(*) FROM conversion_history`).Scan(&stats.TotalConversions)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(converted_at) FROM conversion_history`).Scan(&stats.LastConversion)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last conversion time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value. A missing key yields "".
func (h *History) GetMetadata(key string) (string, error) {
	var value string
	err := h.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(key, value string) error {
	query := `
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := h.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}

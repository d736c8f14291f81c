// Package db provides the SQLite store for FX rates, conversion history and
// metadata.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- FX rate list
-- One row per currency and day; rate is home-currency units per one unit,
-- stored as decimal text
CREATE TABLE IF NOT EXISTS fx_rates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    currency TEXT NOT NULL,            -- ISO 4217 code
    day TEXT NOT NULL,                 -- YYYY-MM-DD
    rate TEXT NOT NULL,
    source TEXT NOT NULL,              -- 'bnb', 'file:<path>', ...
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(currency, day)
);

CREATE INDEX IF NOT EXISTS idx_fx_rates_day
    ON fx_rates(day);

-- Conversion history
-- One row per successful conversion run
CREATE TABLE IF NOT EXISTS conversion_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    input_file TEXT NOT NULL,
    output_file TEXT NOT NULL,
    accounts INTEGER NOT NULL,
    categories INTEGER NOT NULL,
    transactions INTEGER NOT NULL,
    cross_currency INTEGER NOT NULL,
    prices INTEGER NOT NULL,
    converted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Key-value metadata
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables that don't exist yet.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}

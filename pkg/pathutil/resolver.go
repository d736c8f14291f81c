// Package pathutil provides centralized path management for the ace2gnc data
// directory, database, rules and output files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	databaseFile = "ace2gnc.db"
	rulesFile    = "rules.yaml"
	ratesFile    = "rates.xml"

	// OutputExt is the extension of generated GnuCash books.
	OutputExt = ".gnucash"
	// GzipExt is appended to the output path for the compressed copy.
	GzipExt = ".gz"
)

// PathResolver manages paths for the data directory and its files.
type PathResolver struct {
	home         string
	databasePath string
	rulesPath    string
	ratesPath    string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Home is the data directory (e.g., ~/.ace2gnc)
	Home string
	// DatabasePath is the SQLite database holding rates and history
	DatabasePath string
	// RulesPath is an explicit business rules file
	RulesPath string
	// RatesPath is an explicit FX rate list file
	RatesPath string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {Home}/ace2gnc.db.
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.Home, databaseFile)
	}

	return &PathResolver{
		home:         config.Home,
		databasePath: dbPath,
		rulesPath:    config.RulesPath,
		ratesPath:    config.RatesPath,
	}
}

// GetHome returns the data directory.
func (p *PathResolver) GetHome() string {
	return p.home
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetRulesPath returns the rules file to load: the configured one, else
// {Home}/rules.yaml when it exists, else "" for the embedded defaults.
func (p *PathResolver) GetRulesPath() string {
	return p.explicitOrHome(p.rulesPath, rulesFile)
}

// GetRatesPath returns the FX rate list to load: the configured one, else
// {Home}/rates.xml when it exists, else "".
func (p *PathResolver) GetRatesPath() string {
	return p.explicitOrHome(p.ratesPath, ratesFile)
}

func (p *PathResolver) explicitOrHome(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	if p.home == "" {
		return ""
	}
	if candidate := filepath.Join(p.home, name); p.FileExists(candidate) {
		return candidate
	}
	return ""
}

// DefaultOutputPath derives the output book path from the input export
// path. Example: export/money.xml -> export/money.gnucash
func DefaultOutputPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + OutputExt
}

// GzipPath returns the path of the compressed copy of outputPath.
func GzipPath(outputPath string) string {
	return outputPath + GzipExt
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a regular file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}

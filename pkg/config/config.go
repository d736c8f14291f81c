// Package config provides configuration management for ace2gnc.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Paths  PathsConfig
	Upload UploadConfig
	BNB    BNBConfig
	Debug  bool
}

// PathsConfig represents file and directory locations.
type PathsConfig struct {
	Home   string // data directory
	DBPath string
	Rules  string // business rules YAML; empty means the embedded defaults
	Rates  string // FX rate list XML
}

// UploadConfig represents the optional remote copy of the output.
type UploadConfig struct {
	Target string // gs://bucket/prefix
}

// BNBConfig represents the Bulgarian National Bank rate source.
type BNBConfig struct {
	URL        string
	StartYear  int
	Currencies []string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	startYear, err := parseIntEnv("BNB_START_YEAR", 2004)
	if err != nil {
		return nil, fmt.Errorf("invalid BNB_START_YEAR: %w", err)
	}

	config := &Config{
		Paths: PathsConfig{
			Home:   getEnvOrDefault("ACE2GNC_HOME", defaultHome()),
			DBPath: os.Getenv("ACE2GNC_DB_PATH"),
			Rules:  os.Getenv("ACE2GNC_RULES"),
			Rates:  os.Getenv("ACE2GNC_RATES"),
		},
		Upload: UploadConfig{
			Target: os.Getenv("ACE2GNC_UPLOAD"),
		},
		BNB: BNBConfig{
			URL:        os.Getenv("BNB_URL"),
			StartYear:  startYear,
			Currencies: splitList(getEnvOrDefault("BNB_CURRENCIES", "USD,JPY")),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "paths":
			switch path[1] {
			case "home":
				value = c.Paths.Home
			case "dbPath":
				value = c.Paths.DBPath
			case "rules":
				value = c.Paths.Rules
			case "rates":
				value = c.Paths.Rates
			}
		case "upload":
			if path[1] == "target" {
				value = c.Upload.Target
			}
		case "bnb":
			switch path[1] {
			case "url":
				value = c.BNB.URL
			case "currencies":
				value = strings.Join(c.BNB.Currencies, ",")
			case "startYear":
				if c.BNB.StartYear > 0 {
					value = "set"
				}
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ace2gnc"
	}
	return filepath.Join(home, ".ace2gnc")
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

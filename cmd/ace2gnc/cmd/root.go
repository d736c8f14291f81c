// Package cmd provides CLI commands for ace2gnc.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/config"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/db"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/pathutil"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ace2gnc",
	Short: "Convert AceMoney exports to GnuCash books",
	Long: `ace2gnc converts an AceMoney XML export into a GnuCash XML book.

It supports:
- Double-entry postings with trading accounts for cross-currency transfers
- Monthly FX rates from a rates file, the local store or the BNB
- A gzip copy of the book and an optional Cloud Storage upload
- Conversion history in SQLite

Example:
  ace2gnc convert -i money.xml
  ace2gnc rates fetch
  ace2gnc stats`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rulesCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// loadEnvironment loads the configuration and the path resolver shared by
// every subcommand.
func loadEnvironment() (*config.Config, *pathutil.PathResolver) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"paths", "home"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := pathutil.New(pathutil.Config{
		Home:         cfg.Paths.Home,
		DatabasePath: cfg.Paths.DBPath,
		RulesPath:    cfg.Paths.Rules,
		RatesPath:    cfg.Paths.Rates,
	})
	slog.Debug("Using data directory", "path", pathResolver.GetHome())

	return cfg, pathResolver
}

// loadRules loads the rules file named by override, the configured one, or
// the embedded defaults.
func loadRules(pathResolver *pathutil.PathResolver, override string) *rules.Rules {
	path := override
	if path == "" {
		path = pathResolver.GetRulesPath()
	}

	if path == "" {
		slog.Debug("Using embedded rules")
		r, err := rules.Default()
		exitOnError(err, "failed to load default rules")
		return r
	}

	slog.Debug("Loading rules", "path", path)
	r, err := rules.Load(path)
	exitOnError(err, "failed to load rules")
	return r
}

// openDatabase opens the SQLite store.
func openDatabase(pathResolver *pathutil.PathResolver) *db.Connection {
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	return conn
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

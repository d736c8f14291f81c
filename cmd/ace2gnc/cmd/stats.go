package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display store statistics",
	Long: `Display statistics about stored FX rates and past conversions.

Shows:
- Total number of stored rates and currencies
- Total number of conversions
- The most recent conversions

Example:
  ace2gnc stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	_, pathResolver := loadEnvironment()

	conn := openDatabase(pathResolver)
	defer conn.Close()

	history := db.NewHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Store Statistics ===")
	fmt.Printf("Stored rates:      %d (%d currencies)\n", stats.TotalRates, stats.RateCurrencies)
	fmt.Printf("Conversions:       %d\n", stats.TotalConversions)

	if stats.LastConversion.Valid {
		fmt.Printf("Last conversion:   %s\n", stats.LastConversion.String)
	} else {
		fmt.Printf("Last conversion:   (never)\n")
	}

	recent, err := history.ListConversions(5)
	exitOnError(err, "failed to list conversions")
	if len(recent) > 0 {
		fmt.Println("\nRecent conversions:")
		for _, r := range recent {
			fmt.Printf("  #%d %s -> %s (%d transactions, %d cross-currency)\n",
				r.ID, r.InputFile, r.OutputFile, r.Transactions, r.CrossCurrency)
		}
	}

	fmt.Println()

	slog.Debug("Statistics displayed successfully")
}

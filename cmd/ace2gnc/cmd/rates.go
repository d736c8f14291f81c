package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/bnb"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/db"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/ratesxml"
)

const (
	sourceImport = "import"
	sourceBNB    = "bnb"
)

var exportFile string

// ratesCmd groups the FX rate store commands.
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage the stored FX rate list",
	Long: `Manage the FX rates used by "ace2gnc convert".

Rates are home-currency units per one foreign unit, one per currency and
day. The converter uses one rate per currency and month.

Example:
  ace2gnc rates import rates.xml
  ace2gnc rates fetch
  ace2gnc rates export -o rates.xml`,
}

var ratesImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a rates XML file into the store",
	Args:  cobra.ExactArgs(1),
	Run:   runRatesImport,
}

var ratesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch monthly rates from the Bulgarian National Bank",
	Long: `Fetch monthly rates from the Bulgarian National Bank.

Each configured currency (BNB_CURRENCIES) is fetched month by month,
starting after the latest stored day or at BNB_START_YEAR, until the
current month or the first month without data.`,
	Run: runRatesFetch,
}

var ratesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored rates as XML",
	Run:   runRatesExport,
}

func init() {
	ratesExportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "output file (default: stdout)")

	ratesCmd.AddCommand(ratesImportCmd)
	ratesCmd.AddCommand(ratesFetchCmd)
	ratesCmd.AddCommand(ratesExportCmd)
}

func runRatesImport(cmd *cobra.Command, args []string) {
	_, pathResolver := loadEnvironment()

	rates, err := ratesxml.ReadFile(args[0])
	exitOnError(err, "failed to read rates file")

	conn := openDatabase(pathResolver)
	defer conn.Close()

	n, err := db.NewRateStore(conn).UpsertRates(rates, sourceImport)
	exitOnError(err, "failed to store rates")

	slog.Info("Imported rates", "file", args[0], "count", n)
}

func runRatesFetch(cmd *cobra.Command, args []string) {
	cfg, pathResolver := loadEnvironment()
	if err := cfg.Validate(
		[]string{"bnb", "currencies"},
		[]string{"bnb", "startYear"},
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	conn := openDatabase(pathResolver)
	defer conn.Close()
	store := db.NewRateStore(conn)

	client := bnb.NewClient(bnb.ClientConfig{
		BaseURL: cfg.BNB.URL,
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	})

	to := fx.MonthOf(time.Now())
	start := time.Date(cfg.BNB.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)

	total := 0
	for _, currency := range cfg.BNB.Currencies {
		from := start
		latest, ok, err := store.LatestDay(currency)
		exitOnError(err, "failed to read stored rates")
		if ok {
			from = fx.MonthOf(latest).AddDate(0, 1, 0)
		}
		if from.After(to) {
			slog.Info("Rates up to date", "currency", currency)
			continue
		}

		slog.Info("Fetching rates", "currency", currency, "from", from.Format("2006-01"), "to", to.Format("2006-01"))
		rates, err := client.FetchRates(cmd.Context(), []string{currency}, from, to)
		exitOnError(err, "failed to fetch rates")

		n, err := store.UpsertRates(rates, sourceBNB)
		exitOnError(err, "failed to store rates")
		total += n
	}

	slog.Info("Fetch completed", "stored", total)
}

func runRatesExport(cmd *cobra.Command, args []string) {
	_, pathResolver := loadEnvironment()

	conn := openDatabase(pathResolver)
	defer conn.Close()

	rates, err := db.NewRateStore(conn).ListRates("")
	exitOnError(err, "failed to list rates")

	out := os.Stdout
	if exportFile != "" {
		f, err := os.Create(exportFile)
		exitOnError(err, "failed to create output file")
		defer f.Close()
		out = f
	}

	exitOnError(ratesxml.Write(out, rates), "failed to write rates")

	if exportFile != "" {
		fmt.Fprintf(os.Stderr, "Exported %d rates to %s\n", len(rates), exportFile)
	}
}

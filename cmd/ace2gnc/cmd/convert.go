package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/converter"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/db"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/gnucash"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/output"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/pathutil"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/ratesxml"
)

const metadataLastConversion = "last_conversion"

var (
	inputFile  string
	outputFile string
	ratesFile  string
	rulesFile  string
	gzipCopy   bool
	uploadTo   string
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert an AceMoney export to a GnuCash book",
	Long: `Convert an AceMoney XML export to a GnuCash XML book.

This command:
1. Loads the business rules and the FX rate list
2. Resolves payees, groups, accounts and categories
3. Posts every transaction as a balanced GnuCash transaction
4. Writes the book, its gzip copy and an optional upload
5. Records the conversion in SQLite

FX rates come from --rates, the configured rates file, or the rates
stored by "ace2gnc rates import/fetch", in that order.

Example:
  ace2gnc convert -i money.xml
  ace2gnc convert -i money.xml -o books/money.gnucash --gzip=false
  ace2gnc convert -i money.xml --upload gs://my-books/ace`,
	Run: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&inputFile, "input", "i", "", "AceMoney XML export (required)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "GnuCash output file (default: input with .gnucash extension)")
	convertCmd.Flags().StringVar(&ratesFile, "rates", "", "FX rate list XML")
	convertCmd.Flags().StringVar(&rulesFile, "rules", "", "business rules YAML")
	convertCmd.Flags().BoolVar(&gzipCopy, "gzip", true, "also write a gzip copy of the output")
	convertCmd.Flags().StringVar(&uploadTo, "upload", "", "upload the output to gs://bucket/prefix")

	convertCmd.MarkFlagRequired("input")
}

func runConvert(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	cfg, pathResolver := loadEnvironment()
	r := loadRules(pathResolver, rulesFile)

	if outputFile == "" {
		outputFile = pathutil.DefaultOutputPath(inputFile)
	}
	if uploadTo == "" {
		uploadTo = cfg.Upload.Target
	}

	slog.Info("Starting conversion", "input", inputFile, "output", outputFile)

	conn := openDatabase(pathResolver)
	defer conn.Close()

	rates, err := loadRates(pathResolver, db.NewRateStore(conn))
	exitOnError(err, "failed to load FX rates")

	f, err := os.Open(inputFile)
	exitOnError(err, "failed to open input")
	doc, err := acemoney.Read(f)
	f.Close()
	exitOnError(err, "failed to read AceMoney export")

	cvtr := converter.New(converter.Config{
		Rules:  r,
		Rates:  rates,
		Logger: slog.Default(),
		Debug:  cfg.Debug || debug,
	})

	book, stats, err := cvtr.Convert(ctx, doc)
	exitOnError(err, "conversion failed")

	var buf bytes.Buffer
	exitOnError(gnucash.Encode(&buf, book), "failed to encode GnuCash book")

	repos := []output.Repository{output.NewFileSystemRepository(pathResolver, gzipCopy)}
	if uploadTo != "" {
		gcs, err := output.NewGCSRepository(ctx, uploadTo)
		exitOnError(err, "failed to create upload target")
		defer gcs.Close()
		repos = append(repos, gcs)
	}

	var written []string
	for _, repo := range repos {
		locations, err := repo.Save(ctx, outputFile, buf.Bytes())
		exitOnError(err, "failed to write output")
		written = append(written, locations...)
	}
	for _, location := range written {
		slog.Info("Wrote", "location", location)
	}

	history := db.NewHistory(conn)
	if _, err := history.RecordConversion(db.ConversionRecord{
		InputFile:     inputFile,
		OutputFile:    outputFile,
		Accounts:      stats.Accounts,
		Categories:    stats.Categories,
		Transactions:  stats.Transactions,
		CrossCurrency: stats.CrossCurrency,
		Prices:        stats.Prices,
	}); err != nil {
		slog.Error("Failed to record conversion", "error", err)
	}
	if err := history.SetMetadata(metadataLastConversion, time.Now().Format(time.RFC3339)); err != nil {
		slog.Error("Failed to update metadata", "error", err)
	}

	fmt.Println("\n=== Conversion Summary ===")
	fmt.Printf("Accounts:          %d\n", stats.Accounts)
	fmt.Printf("Categories:        %d\n", stats.Categories)
	fmt.Printf("Transactions:      %d\n", stats.Transactions)
	fmt.Printf("  transfers:       %d\n", stats.Transfers)
	fmt.Printf("  cross-currency:  %d\n", stats.CrossCurrency)
	fmt.Printf("Opening balances:  %d\n", stats.OpeningBalances)
	fmt.Printf("Prices:            %d\n", stats.Prices)
	fmt.Println()
}

// loadRates returns the rate list from the rates file if one is configured,
// else the stored rates. Nil means no list is available.
func loadRates(pathResolver *pathutil.PathResolver, store *db.RateStore) ([]fx.Rate, error) {
	path := ratesFile
	if path == "" {
		path = pathResolver.GetRatesPath()
	}
	if path != "" {
		slog.Debug("Loading FX rates", "path", path)
		return ratesxml.ReadFile(path)
	}

	rates, err := store.ListRates("")
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		slog.Warn("No FX rate list available, using default rates")
		return nil, nil
	}
	slog.Debug("Loaded stored FX rates", "count", len(rates))
	return rates, nil
}

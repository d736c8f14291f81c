// Package converter turns an AceMoney document into a GnuCash book.
package converter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/gnucash"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/guid"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/resolver"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

// progressInterval is how often transaction progress is logged.
const progressInterval = 100

// Config holds the converter configuration.
type Config struct {
	Rules *rules.Rules
	// Rates is the external FX rate list. Nil means no list was supplied
	// and only the default rates are used.
	Rates []fx.Rate
	// IDs generates every GnuCash identifier. Defaults to guid.New.
	IDs    guid.Generator
	Logger *slog.Logger
	// Debug adds AceMoney ids to account notes.
	Debug bool
}

// Stats summarizes a conversion.
type Stats struct {
	Payees          int
	Groups          int
	Accounts        int
	Categories      int
	Transactions    int
	Transfers       int
	CrossCurrency   int
	OpeningBalances int
	Prices          int
}

// Converter converts AceMoney documents to GnuCash documents.
type Converter struct {
	rules  *rules.Rules
	rates  []fx.Rate
	ids    guid.Generator
	logger *slog.Logger
	debug  bool
}

// New creates a Converter.
func New(cfg Config) *Converter {
	c := &Converter{
		rules:  cfg.Rules,
		rates:  cfg.Rates,
		ids:    cfg.IDs,
		logger: cfg.Logger,
		debug:  cfg.Debug,
	}
	if c.ids == nil {
		c.ids = guid.New
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Convert builds the complete GnuCash document for doc. Any error aborts the
// conversion; no partial document is returned.
func (c *Converter) Convert(ctx context.Context, doc *acemoney.Document) (*gnucash.Document, Stats, error) {
	var stats Stats

	table := fx.NewTable(c.rules.HomeCurrency, c.rules.DefaultRates())
	table.SetLogger(c.logger)
	table.Init(c.rates, c.rules.OpeningBalanceDay)

	book, err := resolver.New(c.rules, c.ids, c.logger).Resolve(doc)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to resolve references: %w", err)
	}
	stats.Payees = len(book.Payees)
	stats.Groups = len(book.GroupList)
	stats.Accounts = len(book.AccountList)
	stats.Categories = len(book.CategoryList)

	w := gnucash.NewWriter(gnucash.NewDocument(c.ids()), c.rules, c.ids)
	w.Debug = c.debug

	entries := table.Entries()
	stats.Prices = len(entries)
	if err := c.writeStructure(w, book, entries); err != nil {
		return nil, stats, err
	}
	stats.OpeningBalances = len(w.Document().Book.Transactions)

	splitter := NewSplitter(book, c.rules, table)
	transactions := SortTransactions(doc.Transactions)
	c.logger.Info("Found transactions", "count", len(transactions))

	for i, tx := range transactions {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if i%progressInterval == 0 {
			c.logger.Debug("Processing transactions", "processed", i, "total", len(transactions))
		}

		// split errors already name the transaction
		p, err := splitter.Split(tx)
		if err != nil {
			return nil, stats, err
		}
		if err := post(w, p); err != nil {
			return nil, stats, fmt.Errorf("transaction %s: %w", tx.ID(), err)
		}

		stats.Transactions++
		switch {
		case p.Opening:
			stats.OpeningBalances++
		case p.CrossCurrency():
			stats.CrossCurrency++
		}
		if p.Transfer {
			stats.Transfers++
		}
	}

	c.logger.Info("Converted transactions",
		"processed", stats.Transactions,
		"transfers", stats.Transfers,
		"cross_currency", stats.CrossCurrency,
		"opening_balances", stats.OpeningBalances,
	)

	return w.Document(), stats, nil
}

// writeStructure writes everything that precedes the transactions: the
// commodities, the price database, the account tree and the opening
// balances of the accounts.
func (c *Converter) writeStructure(w *gnucash.Writer, book *resolver.Book, entries []fx.Entry) error {
	w.Commodities()
	w.PriceDB(entries)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"root account", w.RootAccount},
		{"opening balance accounts", w.OpeningBalanceAccounts},
		{"trading accounts", w.TradingAccounts},
		{"categories", func() error { return w.Categories(book) }},
		{"account groups", func() error { return w.AccountGroups(book) }},
		{"accounts", func() error { return w.Accounts(book) }},
		{"opening balances", func() error { return w.OpeningBalances(book.AccountList) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
	}
	return nil
}

func post(w *gnucash.Writer, p Posting) error {
	if p.Opening {
		return w.PostOpening(p.SrcAccount, p.Src.Amount, p.Day, p.Description, p.Num, p.Reconciled)
	}
	return w.PostDoubleEntry(p.Src.Currency, p.Day, p.Description, p.Num, p.Reconciled, p.Src, p.Dst)
}

package converter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/gnucash"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/resolver"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

// Posting is the double-entry form of one AceMoney transaction.
type Posting struct {
	Src gnucash.Leg
	Dst gnucash.Leg

	// Opening postings are booked against the opening-balances account of
	// SrcAccount's currency instead of Dst.
	Opening    bool
	SrcAccount *resolver.Account

	Day         time.Time
	Description string
	Num         string
	Reconciled  bool
	Transfer    bool
}

// CrossCurrency reports whether the legs are in different currencies.
func (p Posting) CrossCurrency() bool {
	return p.Src.Currency != p.Dst.Currency
}

// Splitter classifies transactions and derives their two legs.
type Splitter struct {
	book  *resolver.Book
	rules *rules.Rules
	fx    *fx.Table
}

// NewSplitter creates a Splitter. table must already be initialized.
func NewSplitter(book *resolver.Book, r *rules.Rules, table *fx.Table) *Splitter {
	return &Splitter{book: book, rules: r, fx: table}
}

// Split converts tx into a Posting.
//
// A transaction with two account references is a transfer: the second
// account is the source and gives TransferAmount, the first is the
// destination and receives Amount. A transaction with one account reference
// moves Amount between that account and its category, the category side
// converted to the home currency at the month's rate.
//
// The category id decides the opening-balance path for both kinds; it only
// has to resolve for single-account transactions.
func (s *Splitter) Split(tx acemoney.Transaction) (Posting, error) {
	id := tx.ID()
	referrer := "transaction " + id

	day, err := time.Parse(acemoney.DateLayout, tx.Date)
	if err != nil {
		return Posting{}, malformed(id, "Date", tx.Date, err)
	}

	categoryID := tx.Category()

	amount, err := parseAmount(id, "Amount", tx.Amount)
	if err != nil {
		return Posting{}, err
	}

	p := Posting{
		Day:        day,
		Num:        id,
		Reconciled: tx.Reconciled(),
		Opening:    s.rules.IsOpeningBalanceCategory(categoryID),
	}

	switch len(tx.AccountIDs) {
	case 2:
		src, err := s.book.Account(tx.AccountIDs[1].ID, referrer)
		if err != nil {
			return Posting{}, err
		}
		dst, err := s.book.Account(tx.AccountIDs[0].ID, referrer)
		if err != nil {
			return Posting{}, err
		}
		transfer, err := parseAmount(id, "TransferAmount", tx.TransferAmount)
		if err != nil {
			return Posting{}, err
		}

		p.SrcAccount = src
		p.Transfer = true
		p.Src = gnucash.Leg{AccountGUID: src.GUID, Amount: transfer, Currency: src.Currency}
		p.Dst = gnucash.Leg{AccountGUID: dst.GUID, Amount: amount, Currency: dst.Currency}

	case 1:
		src, err := s.book.Account(tx.AccountIDs[0].ID, referrer)
		if err != nil {
			return Posting{}, err
		}
		category, err := s.book.Category(categoryID, referrer)
		if err != nil {
			return Posting{}, err
		}

		p.SrcAccount = src
		p.Src = gnucash.Leg{AccountGUID: src.GUID, Amount: amount, Currency: src.Currency}
		p.Dst = gnucash.Leg{
			AccountGUID: category.GUID,
			Amount:      s.fx.ToHome(amount, src.Currency, day),
			Currency:    category.Currency,
		}

	default:
		return Posting{}, malformed(id, "AccountID", fmt.Sprintf("%d references", len(tx.AccountIDs)),
			fmt.Errorf("expected one or two account references"))
	}

	p.Description, err = s.description(tx, referrer)
	if err != nil {
		return Posting{}, err
	}

	return p, nil
}

// description joins the payee name and the comment with ": ", using
// whichever is present when only one is.
func (s *Splitter) description(tx acemoney.Transaction, referrer string) (string, error) {
	var parts []string

	if payeeID, ok := tx.Payee(); ok {
		name, err := s.book.Payee(payeeID, referrer)
		if err != nil {
			return "", err
		}
		if name != "" {
			parts = append(parts, name)
		}
	}
	if tx.Comment != nil && *tx.Comment != "" {
		parts = append(parts, *tx.Comment)
	}

	return strings.Join(parts, ": "), nil
}

// SortTransactions returns the transactions ordered by date. The sort is
// stable so same-day transactions keep their source order.
func SortTransactions(txs []acemoney.Transaction) []acemoney.Transaction {
	sorted := make([]acemoney.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted
}

func parseAmount(id, field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, malformed(id, field, value, err)
	}
	return d, nil
}

func malformed(id, field, value string, err error) error {
	return &acemoney.MalformedRecordError{Kind: "transaction", ID: id, Field: field, Value: value, Err: err}
}

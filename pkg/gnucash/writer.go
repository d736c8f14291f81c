package gnucash

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/guid"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/resolver"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

const (
	timestampLayout = "2006-01-02 15:04:05 -0700"
	priceSource     = "user:price-editor"
	quoteSource     = "currency"
)

// Leg is one side of a double-entry posting: an amount in the currency of
// the account it is booked to.
type Leg struct {
	AccountGUID string
	Amount      decimal.Decimal
	Currency    string
}

// Writer appends commodities, accounts, prices and transactions to a
// Document. The structural accounts must be written before any posting that
// references them.
type Writer struct {
	// Debug adds the AceMoney ids to the notes of groups and accounts.
	Debug bool

	doc   *Document
	rules *rules.Rules
	ids   guid.Generator

	rootID     string
	openingIDs map[string]string
	tradingIDs map[string]string
}

// NewWriter creates a Writer that appends to doc.
func NewWriter(doc *Document, r *rules.Rules, ids guid.Generator) *Writer {
	return &Writer{
		doc:        doc,
		rules:      r,
		ids:        ids,
		rootID:     ids(),
		openingIDs: make(map[string]string),
		tradingIDs: make(map[string]string),
	}
}

// Document returns the document being written.
func (w *Writer) Document() *Document {
	return w.doc
}

// RootID returns the GUID of the root account.
func (w *Writer) RootID() string {
	return w.rootID
}

// OpeningAccount returns the GUID of the opening-balances account of currency.
func (w *Writer) OpeningAccount(currency string) (string, bool) {
	id, ok := w.openingIDs[currency]
	return id, ok
}

// TradingAccount returns the GUID of the trading account of currency.
func (w *Writer) TradingAccount(currency string) (string, bool) {
	id, ok := w.tradingIDs[currency]
	return id, ok
}

// Commodities writes one currency commodity per configured currency.
func (w *Writer) Commodities() {
	for _, code := range w.rules.Currencies() {
		w.doc.Book.Commodities = append(w.doc.Book.Commodities, Commodity{
			Version:      "2.0.0",
			CommodityRef: currencyRef(code),
			QuoteSource:  quoteSource,
		})
	}
}

// PriceDB writes the FX table as prices of each foreign currency in the
// home currency.
func (w *Writer) PriceDB(entries []fx.Entry) {
	db := &PriceDB{Version: "1"}
	for _, e := range entries {
		db.Prices = append(db.Prices, Price{
			ID:        guidRef(w.ids()),
			Commodity: currencyRef(e.Currency),
			Currency:  currencyRef(w.rules.HomeCurrency),
			Time:      w.timestamp(e.Month),
			Source:    priceSource,
			Type:      "unknown",
			Value:     ratValue(e.Rate),
		})
	}
	w.doc.Book.PriceDB = db
}

// ratValue renders a rate as a reduced "num/denom" fraction, including
// integers ("2/1").
func ratValue(d decimal.Decimal) string {
	r := d.Rat()
	return r.Num().String() + "/" + r.Denom().String()
}

// RootAccount writes the root of the account tree.
func (w *Writer) RootAccount() error {
	return w.account("Root Account", w.rootID, "", AccountTypeRoot, "", w.rules.HomeCurrency, nil)
}

// OpeningBalanceAccounts writes Equity:Opening Balances with one child per
// currency.
func (w *Writer) OpeningBalanceAccounts() error {
	equityID, openingID := w.ids(), w.ids()
	if err := w.placeholder("Equity", equityID, w.rootID, AccountTypeEquity); err != nil {
		return err
	}
	if err := w.placeholder("Opening Balances", openingID, equityID, AccountTypeEquity); err != nil {
		return err
	}

	for _, code := range w.rules.Currencies() {
		id := w.ids()
		w.openingIDs[code] = id
		if err := w.account(code, id, openingID, AccountTypeEquity, "", code, nil); err != nil {
			return err
		}
	}
	return nil
}

// TradingAccounts writes Trading:CURRENCY with one child per currency.
func (w *Writer) TradingAccounts() error {
	tradingID, currencyID := w.ids(), w.ids()
	if err := w.placeholder("Trading", tradingID, w.rootID, AccountTypeTrading); err != nil {
		return err
	}
	if err := w.placeholder("CURRENCY", currencyID, tradingID, AccountTypeTrading); err != nil {
		return err
	}

	for _, code := range w.rules.Currencies() {
		id := w.ids()
		w.tradingIDs[code] = id
		if err := w.account(code, id, currencyID, AccountTypeTrading, "", code, nil); err != nil {
			return err
		}
	}
	return nil
}

// Categories writes the Expense and Income placeholders and the category
// tree under them. Top-level categories are written before subcategories.
func (w *Writer) Categories(book *resolver.Book) error {
	expenseID, incomeID := w.ids(), w.ids()
	if err := w.placeholder("Expense", expenseID, w.rootID, AccountTypeExpense); err != nil {
		return err
	}
	if err := w.placeholder("Income", incomeID, w.rootID, AccountTypeIncome); err != nil {
		return err
	}

	for _, c := range book.TopLevelCategories() {
		parent := expenseID
		if c.Nature == resolver.NatureIncome {
			parent = incomeID
		}
		if err := w.account(c.Name, c.GUID, parent, AccountType(c.Nature), "", c.Currency, nil); err != nil {
			return err
		}
	}

	for _, c := range book.SubCategories() {
		if err := w.account(c.Name, c.GUID, c.Parent.GUID, AccountType(c.Nature), "", c.Currency, nil); err != nil {
			return err
		}
	}
	return nil
}

// AccountGroups writes one top-level placeholder per account group.
func (w *Writer) AccountGroups(book *resolver.Book) error {
	for _, g := range book.GroupList {
		slots := []Slot{stringSlot("placeholder", "true")}
		if w.Debug {
			slots = append(slots, stringSlot("notes", "AceGroupID="+g.SourceID))
		}
		if err := w.account(g.Name, g.GUID, w.rootID, AccountTypeBank, "", w.rules.HomeCurrency, slots); err != nil {
			return err
		}
	}
	return nil
}

// Accounts writes one bank account per AceMoney account under its group.
func (w *Writer) Accounts(book *resolver.Book) error {
	for _, a := range book.AccountList {
		var slots []Slot
		if notes := w.accountNotes(a); notes != "" {
			slots = append(slots, stringSlot("notes", notes))
		}
		if a.Hidden {
			slots = append(slots, stringSlot("hidden", "true"))
		}
		if err := w.account(a.Name, a.GUID, a.Group.GUID, AccountTypeBank, a.Number, a.Currency, slots); err != nil {
			return err
		}
	}
	return nil
}

// OpeningBalances posts the initial balance of every account with a
// non-zero balance on the opening-balance day.
func (w *Writer) OpeningBalances(accounts []*resolver.Account) error {
	for _, a := range accounts {
		if a.InitialBalance.IsZero() {
			continue
		}
		if err := w.PostOpening(a, a.InitialBalance, w.rules.OpeningBalanceDay, "", "", true); err != nil {
			return fmt.Errorf("opening balance of account %s: %w", a.SourceID, err)
		}
	}
	return nil
}

// PostOpening posts amount between account and the opening-balances
// account of its currency.
func (w *Writer) PostOpening(account *resolver.Account, amount decimal.Decimal, day time.Time, description, num string, reconciled bool) error {
	equity, ok := w.openingIDs[account.Currency]
	if !ok {
		return fmt.Errorf("no opening-balances account for %s", account.Currency)
	}

	src := Leg{AccountGUID: account.GUID, Amount: amount, Currency: account.Currency}
	dst := Leg{AccountGUID: equity, Amount: amount, Currency: account.Currency}
	return w.PostDoubleEntry(account.Currency, day, description, num, reconciled, src, dst)
}

// PostDoubleEntry writes a balanced transaction in currency moving src.Amount
// out of src.AccountGUID and dst.Amount into dst.AccountGUID. When the legs
// are in different currencies the imbalance is booked to the trading account
// of each currency, so that values balance in the transaction currency and
// quantities balance per commodity.
func (w *Writer) PostDoubleEntry(currency string, day time.Time, description, num string, reconciled bool, src, dst Leg) error {
	srcValue, err := w.minorUnits(src)
	if err != nil {
		return err
	}
	dstValue, err := w.minorUnits(dst)
	if err != nil {
		return err
	}

	state := ReconciledStateNew
	if reconciled {
		state = ReconciledStateReconciled
	}

	splits := []Split{
		w.split(src.AccountGUID, state, srcValue, srcValue),
		w.split(dst.AccountGUID, state, srcValue.Neg(), dstValue.Neg()),
	}

	if src.Currency != dst.Currency {
		srcTrading, ok := w.tradingIDs[src.Currency]
		if !ok {
			return fmt.Errorf("no trading account for %s", src.Currency)
		}
		dstTrading, ok := w.tradingIDs[dst.Currency]
		if !ok {
			return fmt.Errorf("no trading account for %s", dst.Currency)
		}

		splits = append(splits,
			w.split(srcTrading, state, srcValue.Neg(), srcValue.Neg()),
			w.split(dstTrading, state, srcValue, dstValue),
		)
	}

	ts := w.timestamp(day)
	w.doc.Book.Transactions = append(w.doc.Book.Transactions, Transaction{
		Version:     "2.0.0",
		ID:          guidRef(w.ids()),
		Currency:    currencyRef(currency),
		DatePosted:  ts,
		DateEntered: ts,
		Description: description,
		Num:         num,
		Slots:       []Slot{gdateSlot("date-posted", day.Format(acemoney.DateLayout))},
		Splits:      splits,
	})
	return nil
}

// maxMinorUnits bounds a split value so that it and its negation fit in int64.
var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// minorUnits converts a leg amount to an integer count of minor units,
// rounding half away from zero. Counts outside int64 are malformed amounts.
func (w *Writer) minorUnits(l Leg) (Value, error) {
	units, err := w.rules.Units(l.Currency)
	if err != nil {
		return Value{}, err
	}

	n := l.Amount.Mul(decimal.NewFromInt(units)).Round(0)
	if n.Abs().GreaterThan(maxMinorUnits) {
		return Value{}, &acemoney.MalformedRecordError{
			Kind:  "posting leg",
			ID:    l.AccountGUID,
			Field: "Amount",
			Value: l.Amount.String(),
			Err:   fmt.Errorf("%s %s minor units out of range", n.String(), l.Currency),
		}
	}
	return Value{Num: n.IntPart(), Denom: units}, nil
}

func (w *Writer) split(account string, state ReconciledState, value, quantity Value) Split {
	return Split{
		ID:              guidRef(w.ids()),
		ReconciledState: state,
		Value:           value,
		Quantity:        quantity,
		Account:         guidRef(account),
	}
}

func (w *Writer) placeholder(name, id, parent string, typ AccountType) error {
	return w.account(name, id, parent, typ, "", w.rules.HomeCurrency, []Slot{stringSlot("placeholder", "true")})
}

func (w *Writer) account(name, id, parent string, typ AccountType, code, currency string, slots []Slot) error {
	units, err := w.rules.Units(currency)
	if err != nil {
		return fmt.Errorf("account %q: %w", name, err)
	}

	a := Account{
		Version:      "2.0.0",
		Name:         name,
		ID:           guidRef(id),
		Type:         typ,
		Code:         code,
		Commodity:    currencyRef(currency),
		CommoditySCU: units,
	}
	if len(slots) > 0 {
		a.Slots = &SlotFrame{Slots: slots}
	}
	if parent != "" {
		p := guidRef(parent)
		a.Parent = &p
	}

	w.doc.Book.Accounts = append(w.doc.Book.Accounts, a)
	return nil
}

func (w *Writer) accountNotes(a *resolver.Account) string {
	if !w.Debug {
		return a.Comment
	}

	debug := fmt.Sprintf("AceID=%s Balance=%s", a.SourceID, a.RawBalance)
	if a.Comment == "" {
		return debug
	}
	return a.Comment + "\n" + debug
}

// timestamp renders midnight of day's calendar date in the configured
// timezone.
func (w *Writer) timestamp(day time.Time) Timestamp {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, w.rules.Location)
	return Timestamp{Date: midnight.Format(timestampLayout)}
}

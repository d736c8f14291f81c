package converter

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/guid"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/resolver"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

func testRules(t *testing.T) *rules.Rules {
	t.Helper()
	r, err := rules.New(rules.File{
		HomeCurrency:      "BGN",
		OpeningBalanceDay: "2000-01-01",
		Timezone:          "Europe/Sofia",
		Currencies: []rules.CurrencyRule{
			{Code: "BGN", AceID: "155", Units: 100},
			{Code: "EUR", AceID: "43", Units: 100, DefaultRate: "1.95583"},
		},
		OpeningBalanceCategoryIDs: []string{"9"},
	})
	assert.NoError(t, err)
	return r
}

func ref(id string) acemoney.IDRef {
	return acemoney.IDRef{ID: id}
}

func refPtr(id string) *acemoney.IDRef {
	r := ref(id)
	return &r
}

func strPtr(s string) *string {
	return &s
}

func testDocument() *acemoney.Document {
	return &acemoney.Document{
		Payees: []acemoney.Payee{{Name: "Shop", PayeeID: ref("7")}},
		Groups: []acemoney.AccountGroup{{Name: "Banks", GroupID: ref("1")}},
		Accounts: []acemoney.Account{
			{Name: "A", InitialBalance: "0", AccountID: ref("10"), GroupID: ref("1"), CurrencyID: ref("155")},
			{Name: "B", InitialBalance: "0", AccountID: ref("11"), GroupID: ref("1"), CurrencyID: ref("43")},
		},
		Categories: []acemoney.Category{
			{Name: "Utilities", CategoryID: ref("3")},
			{Name: "Opening", CategoryID: ref("9")},
		},
	}
}

func newTestSplitter(t *testing.T, rates []fx.Rate) (*Splitter, *resolver.Book) {
	t.Helper()
	r := testRules(t)

	book, err := resolver.New(r, guid.Sequence("s"), nil).Resolve(testDocument())
	assert.NoError(t, err)

	table := fx.NewTable(r.HomeCurrency, r.DefaultRates())
	table.Init(rates, r.OpeningBalanceDay)

	return NewSplitter(book, r, table), book
}

func TestSplitTransfer(t *testing.T) {
	s, book := newTestSplitter(t, nil)

	p, err := s.Split(acemoney.Transaction{
		Date:           "2020-03-15",
		Amount:         "10",
		TransferAmount: "12",
		TransactionID:  ref("100"),
		AccountIDs:     []acemoney.IDRef{ref("10"), ref("11")},
		State:          &acemoney.TransactionState{State: "1"},
	})
	assert.NoError(t, err)

	assert.Equal(t, book.Accounts["11"].GUID, p.Src.AccountGUID)
	assert.Equal(t, "12", p.Src.Amount.String())
	assert.Equal(t, "EUR", p.Src.Currency)
	assert.Equal(t, book.Accounts["10"].GUID, p.Dst.AccountGUID)
	assert.Equal(t, "10", p.Dst.Amount.String())
	assert.Equal(t, "BGN", p.Dst.Currency)

	assert.True(t, p.Transfer)
	assert.True(t, p.Reconciled)
	assert.True(t, p.CrossCurrency())
	assert.False(t, p.Opening)
	assert.Equal(t, "100", p.Num)
	assert.True(t, p.Day.Equal(time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestSplitTransferIgnoresCategory(t *testing.T) {
	s, book := newTestSplitter(t, nil)

	p, err := s.Split(acemoney.Transaction{
		Date:           "2020-03-15",
		Amount:         "10",
		TransferAmount: "5.11",
		TransactionID:  ref("101"),
		CategoryID:     refPtr("99"),
		AccountIDs:     []acemoney.IDRef{ref("10"), ref("11")},
	})
	assert.NoError(t, err)
	assert.True(t, p.Transfer)
	assert.False(t, p.Opening)
	assert.Equal(t, book.Accounts["10"].GUID, p.Dst.AccountGUID)
}

func TestSplitTransferOpeningCategory(t *testing.T) {
	s, book := newTestSplitter(t, nil)

	p, err := s.Split(acemoney.Transaction{
		Date:           "2020-03-15",
		Amount:         "10",
		TransferAmount: "5.11",
		TransactionID:  ref("102"),
		CategoryID:     refPtr("9"),
		AccountIDs:     []acemoney.IDRef{ref("10"), ref("11")},
	})
	assert.NoError(t, err)
	assert.True(t, p.Opening)
	assert.Equal(t, book.Accounts["11"], p.SrcAccount)
}

func TestSplitCategorized(t *testing.T) {
	tests := []struct {
		name     string
		account  string
		rates    []fx.Rate
		expected string
	}{
		{
			name:     "home currency",
			account:  "10",
			expected: "-10",
		},
		{
			name:     "foreign currency without rate list",
			account:  "11",
			expected: "-19.5583",
		},
		{
			name:    "foreign currency with monthly rate",
			account: "11",
			rates: []fx.Rate{
				{Currency: "EUR", Day: time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("1.9")},
			},
			expected: "-19",
		},
		{
			name:    "rate of another month is not used",
			account: "11",
			rates: []fx.Rate{
				{Currency: "EUR", Day: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("1.9")},
			},
			expected: "-19.5583",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, book := newTestSplitter(t, tt.rates)

			p, err := s.Split(acemoney.Transaction{
				Date:          "2020-03-15",
				Amount:        "-10.00",
				TransactionID: ref("100"),
				CategoryID:    refPtr("3"),
				AccountIDs:    []acemoney.IDRef{ref(tt.account)},
			})
			assert.NoError(t, err)

			assert.Equal(t, book.Accounts[tt.account].GUID, p.Src.AccountGUID)
			assert.Equal(t, "-10", p.Src.Amount.String())
			assert.Equal(t, book.Categories["3"].GUID, p.Dst.AccountGUID)
			assert.Equal(t, "BGN", p.Dst.Currency)
			assert.Equal(t, tt.expected, p.Dst.Amount.String())
			assert.False(t, p.Transfer)
			assert.False(t, p.Reconciled)
		})
	}
}

func TestSplitUnassignedAndOpening(t *testing.T) {
	s, book := newTestSplitter(t, nil)

	p, err := s.Split(acemoney.Transaction{
		Date: "2020-03-15", Amount: "5", TransactionID: ref("1"),
		AccountIDs: []acemoney.IDRef{ref("10")},
	})
	assert.NoError(t, err)
	assert.Equal(t, book.Unassigned.GUID, p.Dst.AccountGUID)
	assert.False(t, p.Opening)

	p, err = s.Split(acemoney.Transaction{
		Date: "2020-03-15", Amount: "5", TransactionID: ref("2"), CategoryID: refPtr("9"),
		AccountIDs: []acemoney.IDRef{ref("10")},
	})
	assert.NoError(t, err)
	assert.True(t, p.Opening)
	assert.Equal(t, book.Accounts["10"], p.SrcAccount)
}

func TestSplitDescription(t *testing.T) {
	tests := []struct {
		name     string
		payee    *acemoney.IDRef
		comment  *string
		expected string
	}{
		{"payee and comment", refPtr("7"), strPtr("milk"), "Shop: milk"},
		{"payee only", refPtr("7"), nil, "Shop"},
		{"empty comment", refPtr("7"), strPtr(""), "Shop"},
		{"comment only", nil, strPtr("milk"), "milk"},
		{"neither", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSplitter(t, nil)
			p, err := s.Split(acemoney.Transaction{
				Date: "2020-03-15", Amount: "1", TransactionID: ref("1"),
				AccountIDs: []acemoney.IDRef{ref("10")},
				PayeeID:    tt.payee,
				Comment:    tt.comment,
			})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, p.Description)
		})
	}
}

func TestSplitErrors(t *testing.T) {
	valid := func() acemoney.Transaction {
		return acemoney.Transaction{
			Date: "2020-03-15", Amount: "1", TransferAmount: "1", TransactionID: ref("1"),
			AccountIDs: []acemoney.IDRef{ref("10")},
		}
	}

	tests := []struct {
		name    string
		mutate  func(tx *acemoney.Transaction)
		missing bool
	}{
		{"no account", func(tx *acemoney.Transaction) { tx.AccountIDs = nil }, false},
		{"three accounts", func(tx *acemoney.Transaction) {
			tx.AccountIDs = []acemoney.IDRef{ref("10"), ref("11"), ref("10")}
		}, false},
		{"bad date", func(tx *acemoney.Transaction) { tx.Date = "15.03.2020" }, false},
		{"bad amount", func(tx *acemoney.Transaction) { tx.Amount = "" }, false},
		{"bad transfer amount", func(tx *acemoney.Transaction) {
			tx.AccountIDs = []acemoney.IDRef{ref("10"), ref("11")}
			tx.TransferAmount = "x"
		}, false},
		{"unknown account", func(tx *acemoney.Transaction) { tx.AccountIDs = []acemoney.IDRef{ref("99")} }, true},
		{"unknown transfer account", func(tx *acemoney.Transaction) {
			tx.AccountIDs = []acemoney.IDRef{ref("10"), ref("99")}
		}, true},
		{"unknown category", func(tx *acemoney.Transaction) { tx.CategoryID = refPtr("99") }, true},
		{"unknown payee", func(tx *acemoney.Transaction) { tx.PayeeID = refPtr("99") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSplitter(t, nil)
			tx := valid()
			tt.mutate(&tx)

			_, err := s.Split(tx)
			assert.Error(t, err)

			var missing *acemoney.MissingReferenceError
			var malformed *acemoney.MalformedRecordError
			if tt.missing {
				assert.True(t, errors.As(err, &missing), "expected MissingReferenceError, got %v", err)
			} else {
				assert.True(t, errors.As(err, &malformed), "expected MalformedRecordError, got %v", err)
			}
		})
	}
}

func TestSortTransactions(t *testing.T) {
	txs := []acemoney.Transaction{
		{Date: "2020-03-15", TransactionID: ref("a")},
		{Date: "2019-01-01", TransactionID: ref("b")},
		{Date: "2020-03-15", TransactionID: ref("c")},
		{Date: "2020-01-31", TransactionID: ref("d")},
		{Date: "2020-03-15", TransactionID: ref("e")},
	}

	sorted := SortTransactions(txs)

	var ids []string
	for _, tx := range sorted {
		ids = append(ids, tx.ID())
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids)
	assert.Equal(t, "a", txs[0].ID(), "input is not modified")
}

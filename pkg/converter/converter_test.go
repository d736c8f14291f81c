package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/gnucash"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/guid"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

const exportTemplate = `<?xml version="1.0"?>
<AceMoneyData>
  <AccountGroups>
    <AccountGroup Name="Banks"><AccountGroupID ID="1"/></AccountGroup>
  </AccountGroups>
  <Accounts>
    <Account Name="Checking" InitialBalance="%s" IsClosed="FALSE">
      <AccountID ID="10"/><AccountGroupID ID="1"/><CurrencyID ID="155"/>
    </Account>
  </Accounts>
  <Categories>
    <Category Name="Utilities"><CategoryID ID="3"/></Category>
  </Categories>
  <Transactions>
    <Transaction Date="2020-03-15" Amount="50.00">
      <TransactionID ID="500"/><CategoryID ID="3"/><AccountID ID="10"/>
      <TransactionState State="0"/>
    </Transaction>
  </Transactions>
</AceMoneyData>`

func readExport(t *testing.T, balance string) *acemoney.Document {
	t.Helper()
	doc, err := acemoney.Read(strings.NewReader(fmt.Sprintf(exportTemplate, balance)))
	assert.NoError(t, err)
	return doc
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	r, err := rules.Default()
	assert.NoError(t, err)
	return New(Config{Rules: r, IDs: guid.Sequence("c")})
}

func accountNamed(doc *gnucash.Document, name string) gnucash.Account {
	for _, a := range doc.Book.Accounts {
		if a.Name == name {
			return a
		}
	}
	return gnucash.Account{}
}

func TestConvertCategorizedTransaction(t *testing.T) {
	doc, stats, err := newTestConverter(t).Convert(context.Background(), readExport(t, "0"))
	assert.NoError(t, err)

	assert.Equal(t, 1, len(doc.Book.Transactions), "no opening posting for a zero balance")
	assert.Equal(t, 0, stats.OpeningBalances)
	assert.Equal(t, 1, stats.Transactions)

	tx := doc.Book.Transactions[0]
	assert.Equal(t, "500", tx.Num)
	assert.Equal(t, "2020-03-15 00:00:00 +0200", tx.DatePosted.Date)
	assert.Equal(t, 2, len(tx.Splits))
	assert.Equal(t, gnucash.Value{Num: 5000, Denom: 100}, tx.Splits[0].Value)
	assert.Equal(t, gnucash.Value{Num: -5000, Denom: 100}, tx.Splits[1].Value)
	assert.Equal(t, accountNamed(doc, "Checking").ID.Value, tx.Splits[0].Account.Value)
	assert.Equal(t, accountNamed(doc, "Utilities").ID.Value, tx.Splits[1].Account.Value)
}

func TestConvertWithOpeningBalance(t *testing.T) {
	doc, stats, err := newTestConverter(t).Convert(context.Background(), readExport(t, "100.00"))
	assert.NoError(t, err)

	assert.Equal(t, 2, len(doc.Book.Transactions))
	assert.Equal(t, 1, stats.OpeningBalances)

	opening := doc.Book.Transactions[0]
	assert.Equal(t, "2000-01-01 00:00:00 +0200", opening.DatePosted.Date)
	assert.Equal(t, 2, len(opening.Splits))
	assert.Equal(t, accountNamed(doc, "Checking").ID.Value, opening.Splits[0].Account.Value)
	assert.Equal(t, gnucash.Value{Num: 10000, Denom: 100}, opening.Splits[0].Value)
	assert.Equal(t, gnucash.Value{Num: -10000, Denom: 100}, opening.Splits[1].Value)

	equity := opening.Splits[1].Account.Value
	var found bool
	for _, a := range doc.Book.Accounts {
		if a.ID.Value == equity {
			found = true
			assert.Equal(t, gnucash.AccountTypeEquity, a.Type)
			assert.Equal(t, "BGN", a.Name)
		}
	}
	assert.True(t, found, "opening split books to an equity account")

	tx := doc.Book.Transactions[1]
	assert.Equal(t, gnucash.Value{Num: 5000, Denom: 100}, tx.Splits[0].Value)
	assert.Equal(t, gnucash.Value{Num: -5000, Denom: 100}, tx.Splits[1].Value)
}

func TestConvertBalancesEveryPosting(t *testing.T) {
	doc := readExport(t, "12.345")
	doc.Accounts = append(doc.Accounts, acemoney.Account{
		Name: "Euro", InitialBalance: "-3.335",
		AccountID: ref("11"), GroupID: ref("1"), CurrencyID: ref("43"),
	})
	doc.Transactions = append(doc.Transactions,
		acemoney.Transaction{
			Date: "2020-01-02", Amount: "-10.005", TransactionID: ref("501"),
			CategoryID: refPtr("3"), AccountIDs: []acemoney.IDRef{ref("11")},
		},
		acemoney.Transaction{
			Date: "2020-02-02", Amount: "19.56", TransferAmount: "10", TransactionID: ref("502"),
			AccountIDs: []acemoney.IDRef{ref("10"), ref("11")},
		},
	)

	out, stats, err := newTestConverter(t).Convert(context.Background(), doc)
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Transactions)
	assert.Equal(t, 1, stats.Transfers)
	assert.Equal(t, 2, stats.CrossCurrency)
	assert.Equal(t, 2, stats.OpeningBalances)

	// transactions are posted in date order after the opening balances
	var nums []string
	for _, tx := range out.Book.Transactions {
		var sum int64
		for _, s := range tx.Splits {
			sum += s.Value.Num
		}
		assert.Equal(t, int64(0), sum, "transaction %s does not balance", tx.Num)
		nums = append(nums, tx.Num)
	}
	assert.Equal(t, []string{"", "", "501", "502", "500"}, nums)
}

func TestConvertAbortsOnError(t *testing.T) {
	doc := readExport(t, "0")
	doc.Transactions[0].CategoryID = refPtr("42")

	out, _, err := newTestConverter(t).Convert(context.Background(), doc)
	assert.Error(t, err)
	assert.True(t, out == nil)

	var missing *acemoney.MissingReferenceError
	assert.True(t, errors.As(err, &missing))
	assert.Contains(t, err.Error(), "transaction 500")
}

func TestConvertResolveError(t *testing.T) {
	doc := readExport(t, "0")
	doc.Accounts[0].CurrencyID = ref("999")

	_, _, err := newTestConverter(t).Convert(context.Background(), doc)
	var unsupported *acemoney.UnsupportedCurrencyError
	assert.True(t, errors.As(err, &unsupported))
}

func TestConvertBalanceOutOfRange(t *testing.T) {
	out, _, err := newTestConverter(t).Convert(context.Background(), readExport(t, "100000000000000000.00"))
	assert.True(t, out == nil)

	var malformed *acemoney.MalformedRecordError
	assert.True(t, errors.As(err, &malformed), "expected MalformedRecordError, got %v", err)
	assert.Contains(t, err.Error(), "opening balance of account 10")
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestConverter(t).Convert(ctx, readExport(t, "0"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestConvertWritesStructure(t *testing.T) {
	doc, stats, err := newTestConverter(t).Convert(context.Background(), readExport(t, "0"))
	assert.NoError(t, err)

	assert.Equal(t, 4, len(doc.Book.Commodities))
	assert.Equal(t, 3, stats.Prices, "the opening month is seeded for every foreign currency")
	assert.Equal(t, 3, len(doc.Book.PriceDB.Prices))
	assert.Equal(t, gnucash.AccountTypeRoot, doc.Book.Accounts[0].Type)

	for _, name := range []string{"Equity", "Opening Balances", "Trading", "CURRENCY", "Expense", "Income", "Banks", "Unassigned"} {
		assert.Equal(t, name, accountNamed(doc, name).Name)
	}
}

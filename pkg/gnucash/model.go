// Package gnucash provides the GnuCash v2 XML book model and the writer
// that synthesizes balanced double-entry transactions into it.
package gnucash

import (
	"encoding/xml"
	"fmt"
)

const (
	AccountTypeRoot    AccountType = "ROOT"
	AccountTypeBank    AccountType = "BANK"
	AccountTypeEquity  AccountType = "EQUITY"
	AccountTypeExpense AccountType = "EXPENSE"
	AccountTypeIncome  AccountType = "INCOME"
	AccountTypeTrading AccountType = "TRADING"
)

const (
	ReconciledStateNew        ReconciledState = "n"
	ReconciledStateReconciled ReconciledState = "y"
)

// CommoditySpaceISO4217 is the commodity namespace of currencies.
const CommoditySpaceISO4217 = "ISO4217"

type AccountType string
type ReconciledState string

// Value is a GnuCash rational amount, rendered as "num/denom".
type Value struct {
	Num   int64
	Denom int64
}

func (v Value) String() string {
	return fmt.Sprintf("%d/%d", v.Num, v.Denom)
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Neg returns the value with the sign of the numerator flipped.
func (v Value) Neg() Value {
	return Value{Num: -v.Num, Denom: v.Denom}
}

// Empty marshals as an element without content.
type Empty struct{}

// GUIDRef is an element holding a typed identifier, e.g. <act:id type="guid">.
type GUIDRef struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

func guidRef(id string) GUIDRef {
	return GUIDRef{Type: "guid", Value: id}
}

// CountData is a <gnc:count-data> element.
type CountData struct {
	Type  string `xml:"cd:type,attr"`
	Count int    `xml:",chardata"`
}

// Timestamp wraps a <ts:date> element.
type Timestamp struct {
	Date string `xml:"ts:date"`
}

type SlotValue struct {
	Type  string `xml:"type,attr"`
	Text  string `xml:",chardata"`
	GDate string `xml:"gdate,omitempty"`
}

type Slot struct {
	Key   string    `xml:"slot:key"`
	Value SlotValue `xml:"slot:value"`
}

func stringSlot(key, value string) Slot {
	return Slot{Key: key, Value: SlotValue{Type: "string", Text: value}}
}

func gdateSlot(key, day string) Slot {
	return Slot{Key: key, Value: SlotValue{Type: "gdate", GDate: day}}
}

// SlotFrame is an <act:slots> frame. A nil frame is omitted entirely.
type SlotFrame struct {
	Slots []Slot `xml:"slot"`
}

type CommodityRef struct {
	Space string `xml:"cmdty:space"`
	ID    string `xml:"cmdty:id"`
}

func currencyRef(code string) CommodityRef {
	return CommodityRef{Space: CommoditySpaceISO4217, ID: code}
}

type Commodity struct {
	Version string `xml:"version,attr"`
	CommodityRef
	GetQuotes   Empty  `xml:"cmdty:get_quotes"`
	QuoteSource string `xml:"cmdty:quote_source"`
	QuoteTZ     Empty  `xml:"cmdty:quote_tz"`
}

type Price struct {
	ID        GUIDRef      `xml:"price:id"`
	Commodity CommodityRef `xml:"price:commodity"`
	Currency  CommodityRef `xml:"price:currency"`
	Time      Timestamp    `xml:"price:time"`
	Source    string       `xml:"price:source"`
	Type      string       `xml:"price:type"`
	Value     string       `xml:"price:value"`
}

type PriceDB struct {
	Version string  `xml:"version,attr"`
	Prices  []Price `xml:"price"`
}

type Account struct {
	Version      string       `xml:"version,attr"`
	Name         string       `xml:"act:name"`
	ID           GUIDRef      `xml:"act:id"`
	Type         AccountType  `xml:"act:type"`
	Code         string       `xml:"act:code,omitempty"`
	Commodity    CommodityRef `xml:"act:commodity"`
	CommoditySCU int64        `xml:"act:commodity-scu"`
	Slots        *SlotFrame   `xml:"act:slots,omitempty"`
	Parent       *GUIDRef     `xml:"act:parent,omitempty"`
}

// Slot returns the string value of the named slot.
func (a *Account) Slot(key string) (string, bool) {
	if a.Slots == nil {
		return "", false
	}
	for _, s := range a.Slots.Slots {
		if s.Key == key {
			return s.Value.Text, true
		}
	}
	return "", false
}

type Split struct {
	ID              GUIDRef         `xml:"split:id"`
	ReconciledState ReconciledState `xml:"split:reconciled-state"`
	Value           Value           `xml:"split:value"`
	Quantity        Value           `xml:"split:quantity"`
	Account         GUIDRef         `xml:"split:account"`
}

type Transaction struct {
	Version     string       `xml:"version,attr"`
	ID          GUIDRef      `xml:"trn:id"`
	Currency    CommodityRef `xml:"trn:currency"`
	DatePosted  Timestamp    `xml:"trn:date-posted"`
	DateEntered Timestamp    `xml:"trn:date-entered"`
	Description string       `xml:"trn:description"`
	Num         string       `xml:"trn:num"`
	Slots       []Slot       `xml:"trn:slots>slot"`
	Splits      []Split      `xml:"trn:splits>trn:split"`
}

type Book struct {
	Version      string        `xml:"version,attr"`
	ID           GUIDRef       `xml:"book:id"`
	Counts       []CountData   `xml:"gnc:count-data"`
	Commodities  []Commodity   `xml:"gnc:commodity"`
	PriceDB      *PriceDB      `xml:"gnc:pricedb,omitempty"`
	Accounts     []Account     `xml:"gnc:account"`
	Transactions []Transaction `xml:"gnc:transaction"`
}

// Document is the <gnc-v2> root of an uncompressed GnuCash file.
type Document struct {
	XMLName    xml.Name   `xml:"gnc-v2"`
	Namespaces []xml.Attr `xml:",any,attr"`
	Count      CountData  `xml:"gnc:count-data"`
	Book       *Book      `xml:"gnc:book"`
}

var namespaces = []struct{ prefix, uri string }{
	{"gnc", "http://www.gnucash.org/XML/gnc"},
	{"act", "http://www.gnucash.org/XML/act"},
	{"book", "http://www.gnucash.org/XML/book"},
	{"cd", "http://www.gnucash.org/XML/cd"},
	{"cmdty", "http://www.gnucash.org/XML/cmdty"},
	{"price", "http://www.gnucash.org/XML/price"},
	{"slot", "http://www.gnucash.org/XML/slot"},
	{"split", "http://www.gnucash.org/XML/split"},
	{"sx", "http://www.gnucash.org/XML/sx"},
	{"trn", "http://www.gnucash.org/XML/trn"},
	{"ts", "http://www.gnucash.org/XML/ts"},
	{"fs", "http://www.gnucash.org/XML/fs"},
	{"bgt", "http://www.gnucash.org/XML/bgt"},
	{"recurrence", "http://www.gnucash.org/XML/recurrence"},
	{"lot", "http://www.gnucash.org/XML/lot"},
	{"addr", "http://www.gnucash.org/XML/addr"},
	{"owner", "http://www.gnucash.org/XML/owner"},
	{"billterm", "http://www.gnucash.org/XML/billterm"},
	{"bt-days", "http://www.gnucash.org/XML/bt-days"},
	{"bt-prox", "http://www.gnucash.org/XML/bt-prox"},
	{"cust", "http://www.gnucash.org/XML/cust"},
	{"employee", "http://www.gnucash.org/XML/employee"},
	{"entry", "http://www.gnucash.org/XML/entry"},
	{"invoice", "http://www.gnucash.org/XML/invoice"},
	{"job", "http://www.gnucash.org/XML/job"},
	{"order", "http://www.gnucash.org/XML/order"},
	{"taxtable", "http://www.gnucash.org/XML/taxtable"},
	{"tte", "http://www.gnucash.org/XML/tte"},
	{"vendor", "http://www.gnucash.org/XML/vendor"},
}

// NewDocument returns the skeleton of an empty book.
func NewDocument(bookGUID string) *Document {
	attrs := make([]xml.Attr, 0, len(namespaces))
	for _, ns := range namespaces {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + ns.prefix}, Value: ns.uri})
	}

	return &Document{
		Namespaces: attrs,
		Count:      CountData{Type: "book", Count: 1},
		Book: &Book{
			Version: "2.0.0",
			ID:      guidRef(bookGUID),
		},
	}
}

// updateCounts recomputes the per-type count-data of the book.
func (b *Book) updateCounts() {
	b.Counts = b.Counts[:0]
	add := func(typ string, n int) {
		if n > 0 {
			b.Counts = append(b.Counts, CountData{Type: typ, Count: n})
		}
	}

	add("commodity", len(b.Commodities))
	add("account", len(b.Accounts))
	add("transaction", len(b.Transactions))
	if b.PriceDB != nil {
		add("price", len(b.PriceDB.Prices))
	}
}

// Package resolver builds the typed, id-resolved view of an AceMoney
// document that the converter posts from.
package resolver

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
)

// CategorySeparator separates parent and child in a category name.
const CategorySeparator = ":"

// UnassignedCategoryName is the display name of the synthetic category.
const UnassignedCategoryName = "Unassigned"

// Nature is the GnuCash account type a category maps to.
type Nature string

const (
	NatureExpense Nature = "EXPENSE"
	NatureIncome  Nature = "INCOME"
)

// AccountGroup is a resolved AceMoney account group.
type AccountGroup struct {
	SourceID string
	Name     string
	GUID     string
}

// Account is a resolved AceMoney account.
type Account struct {
	SourceID       string
	Group          *AccountGroup
	Name           string
	Currency       string
	InitialBalance decimal.Decimal
	RawBalance     string
	Number         string
	Comment        string
	Hidden         bool
	GUID           string
}

// Category is a resolved AceMoney category. Parent is nil for top-level
// categories; the hierarchy is at most two levels deep.
type Category struct {
	SourceID string
	Parent   *Category
	Name     string
	Currency string
	Nature   Nature
	GUID     string
}

// FullName returns "Parent:Child" for subcategories and Name otherwise.
func (c *Category) FullName() string {
	if c.Parent == nil {
		return c.Name
	}
	return c.Parent.Name + CategorySeparator + c.Name
}

// Depth returns 1 for top-level categories and 2 for subcategories.
func (c *Category) Depth() int {
	if c.Parent == nil {
		return 1
	}
	return 2
}

// Book holds every resolved entity of one document. The maps are keyed by
// AceMoney source id; the slices keep source order for deterministic output.
type Book struct {
	HomeCurrency string

	Payees     map[string]string
	Groups     map[string]*AccountGroup
	Accounts   map[string]*Account
	Categories map[string]*Category

	GroupList    []*AccountGroup
	AccountList  []*Account
	CategoryList []*Category

	Unassigned *Category
}

// Account looks up an account by source id.
func (b *Book) Account(id, referrer string) (*Account, error) {
	a, ok := b.Accounts[id]
	if !ok {
		return nil, &acemoney.MissingReferenceError{Kind: "account", ID: id, Referrer: referrer}
	}
	return a, nil
}

// Category looks up a category by source id.
func (b *Book) Category(id, referrer string) (*Category, error) {
	c, ok := b.Categories[id]
	if !ok {
		return nil, &acemoney.MissingReferenceError{Kind: "category", ID: id, Referrer: referrer}
	}
	return c, nil
}

// Payee looks up a payee display name by source id.
func (b *Book) Payee(id, referrer string) (string, error) {
	p, ok := b.Payees[id]
	if !ok {
		return "", &acemoney.MissingReferenceError{Kind: "payee", ID: id, Referrer: referrer}
	}
	return p, nil
}

// TopLevelCategories returns the categories without a parent, in source order.
func (b *Book) TopLevelCategories() []*Category {
	var l []*Category
	for _, c := range b.CategoryList {
		if c.Depth() == 1 {
			l = append(l, c)
		}
	}
	return l
}

// SubCategories returns the categories with a parent, in source order.
func (b *Book) SubCategories() []*Category {
	var l []*Category
	for _, c := range b.CategoryList {
		if c.Depth() == 2 {
			l = append(l, c)
		}
	}
	return l
}

func splitCategoryName(name string) []string {
	return strings.Split(name, CategorySeparator)
}

package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/acemoney"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/guid"
	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/rules"
)

// Resolver turns the flat AceMoney records into a Book.
type Resolver struct {
	rules  *rules.Rules
	ids    guid.Generator
	logger *slog.Logger
}

// New creates a Resolver. ids assigns the GnuCash identifier of every
// group, account and category.
func New(r *rules.Rules, ids guid.Generator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{rules: r, ids: ids, logger: logger}
}

// Resolve builds the Book. Payees and groups come first since accounts
// reference groups; categories are resolved in two passes so that every
// "Parent:Child" can find its parent by name.
func (r *Resolver) Resolve(doc *acemoney.Document) (*Book, error) {
	b := &Book{
		HomeCurrency: r.rules.HomeCurrency,
		Payees:       make(map[string]string, len(doc.Payees)),
		Groups:       make(map[string]*AccountGroup, len(doc.Groups)),
		Accounts:     make(map[string]*Account, len(doc.Accounts)),
		Categories:   make(map[string]*Category, len(doc.Categories)+1),
	}

	if err := r.resolvePayees(b, doc.Payees); err != nil {
		return nil, err
	}
	if err := r.resolveGroups(b, doc.Groups); err != nil {
		return nil, err
	}
	if err := r.resolveAccounts(b, doc.Accounts); err != nil {
		return nil, err
	}
	if err := r.resolveCategories(b, doc.Categories); err != nil {
		return nil, err
	}

	return b, nil
}

func (r *Resolver) resolvePayees(b *Book, payees []acemoney.Payee) error {
	for _, p := range payees {
		id := p.PayeeID.ID
		if _, dup := b.Payees[id]; dup {
			return duplicateError("payee", id)
		}
		b.Payees[id] = p.Name
		r.logger.Debug("Payee", "id", id, "name", p.Name)
	}

	r.logger.Info("Found payees", "count", len(payees))
	return nil
}

func (r *Resolver) resolveGroups(b *Book, groups []acemoney.AccountGroup) error {
	for _, g := range groups {
		id := g.GroupID.ID
		if _, dup := b.Groups[id]; dup {
			return duplicateError("account group", id)
		}

		group := &AccountGroup{SourceID: id, Name: g.Name, GUID: r.ids()}
		b.Groups[id] = group
		b.GroupList = append(b.GroupList, group)
		r.logger.Debug("Account group", "id", id, "name", g.Name)
	}

	r.logger.Info("Found account groups", "count", len(groups))
	return nil
}

func (r *Resolver) resolveAccounts(b *Book, accounts []acemoney.Account) error {
	for _, a := range accounts {
		id := a.AccountID.ID
		if _, dup := b.Accounts[id]; dup {
			return duplicateError("account", id)
		}

		group, ok := b.Groups[a.GroupID.ID]
		if !ok {
			return &acemoney.MissingReferenceError{
				Kind:     "account group",
				ID:       a.GroupID.ID,
				Referrer: fmt.Sprintf("account %s", id),
			}
		}

		currency, err := r.rules.Currency(a.CurrencyID.ID)
		if err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
		if _, err := r.rules.Units(currency); err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}

		balance := decimal.Zero
		if raw := strings.TrimSpace(a.InitialBalance); raw != "" {
			balance, err = decimal.NewFromString(raw)
			if err != nil {
				return &acemoney.MalformedRecordError{
					Kind: "account", ID: id, Field: "InitialBalance", Value: a.InitialBalance, Err: err,
				}
			}
		}

		account := &Account{
			SourceID:       id,
			Group:          group,
			Name:           a.Name,
			Currency:       currency,
			InitialBalance: balance,
			RawBalance:     a.InitialBalance,
			Number:         a.Number,
			Comment:        a.Comment,
			Hidden:         a.Closed(),
			GUID:           r.ids(),
		}
		b.Accounts[id] = account
		b.AccountList = append(b.AccountList, account)
		r.logger.Debug("Account", "id", id, "name", group.Name+" / "+a.Name, "currency", currency)
	}

	r.logger.Info("Found accounts", "count", len(accounts))
	return nil
}

func (r *Resolver) resolveCategories(b *Book, categories []acemoney.Category) error {
	byName := make(map[string]*Category)

	// first pass: top-level categories
	for _, c := range categories {
		id := c.CategoryID.ID
		if strings.Contains(c.Name, CategorySeparator) {
			continue
		}
		if _, dup := b.Categories[id]; dup {
			return duplicateError("category", id)
		}

		nature := NatureExpense
		if r.rules.IsIncomeCategory(id) {
			nature = NatureIncome
		}

		category := r.newCategory(id, nil, c.Name, nature)
		b.Categories[id] = category
		b.CategoryList = append(b.CategoryList, category)
		byName[c.Name] = category
		r.logger.Debug("Top category", "id", id, "name", c.Name, "nature", nature)
	}

	// second pass: subcategories
	for _, c := range categories {
		id := c.CategoryID.ID
		parts := splitCategoryName(c.Name)
		if len(parts) == 1 {
			continue
		}
		if len(parts) > 2 {
			// only top-level categories can be parents
			return &acemoney.MalformedRecordError{
				Kind: "category", ID: id, Field: "Name", Value: c.Name,
				Err: &acemoney.MissingReferenceError{
					Kind:     "top-level category",
					ID:       strings.Join(parts[:len(parts)-1], CategorySeparator),
					Referrer: "categories nest at most two levels",
				},
			}
		}
		if _, dup := b.Categories[id]; dup {
			return duplicateError("category", id)
		}

		parent, ok := byName[parts[0]]
		if !ok {
			return &acemoney.MissingReferenceError{
				Kind:     "parent category",
				ID:       parts[0],
				Referrer: fmt.Sprintf("category %s", id),
			}
		}

		nature := parent.Nature
		if r.rules.IsIncomeCategory(id) {
			nature = NatureIncome
		}

		category := r.newCategory(id, parent, parts[1], nature)
		b.Categories[id] = category
		b.CategoryList = append(b.CategoryList, category)
		r.logger.Debug("Category", "id", id, "name", category.FullName(), "depth", category.Depth(), "nature", nature)
	}

	if _, dup := b.Categories[acemoney.UnassignedCategoryID]; dup {
		return duplicateError("category", acemoney.UnassignedCategoryID)
	}
	b.Unassigned = r.newCategory(acemoney.UnassignedCategoryID, nil, UnassignedCategoryName, NatureExpense)
	b.Categories[acemoney.UnassignedCategoryID] = b.Unassigned
	b.CategoryList = append(b.CategoryList, b.Unassigned)

	r.logger.Info("Found categories", "count", len(categories))
	return nil
}

func (r *Resolver) newCategory(id string, parent *Category, name string, nature Nature) *Category {
	return &Category{
		SourceID: id,
		Parent:   parent,
		Name:     name,
		Currency: r.rules.HomeCurrency,
		Nature:   nature,
		GUID:     r.ids(),
	}
}

func duplicateError(kind, id string) error {
	return &acemoney.MalformedRecordError{
		Kind: kind, ID: id, Field: "ID", Value: id,
		Err: fmt.Errorf("duplicate id"),
	}
}

// Package acemoney provides the AceMoney XML export model and reader.
package acemoney

// DateLayout is the layout of every date attribute in an AceMoney export.
const DateLayout = "2006-01-02"

// UnassignedCategoryID is the reserved category id used for transactions
// that carry no CategoryID element.
const UnassignedCategoryID = "-1"

// StateReconciled is the TransactionState/@State code of a reconciled transaction.
const StateReconciled = "1"

// IDRef is the child element every AceMoney record uses to carry its
// numeric id, e.g. <AccountID ID="12"/>.
type IDRef struct {
	ID string `xml:"ID,attr"`
}

// Payee represents a payee record.
type Payee struct {
	Name    string `xml:"Name,attr"`
	PayeeID IDRef  `xml:"PayeeID"`
}

// AccountGroup represents an account group record.
type AccountGroup struct {
	Name    string `xml:"Name,attr"`
	GroupID IDRef  `xml:"AccountGroupID"`
}

// Account represents an account record.
type Account struct {
	Name           string `xml:"Name,attr"`
	InitialBalance string `xml:"InitialBalance,attr"`
	Number         string `xml:"Number,attr"`
	Comment        string `xml:"Comment,attr"`
	IsClosed       string `xml:"IsClosed,attr"`
	AccountID      IDRef  `xml:"AccountID"`
	GroupID        IDRef  `xml:"AccountGroupID"`
	CurrencyID     IDRef  `xml:"CurrencyID"`
}

// Closed reports whether the account is flagged as closed in AceMoney.
func (a Account) Closed() bool {
	return a.IsClosed == "TRUE"
}

// Category represents a category record. Subcategories are encoded in the
// name as "Parent:Child".
type Category struct {
	Name       string `xml:"Name,attr"`
	CategoryID IDRef  `xml:"CategoryID"`
}

// TransactionState carries the cleared/reconciled flag of a transaction.
type TransactionState struct {
	State string `xml:"State,attr"`
}

// Transaction represents a transaction record. A transfer lists two
// AccountID elements; a categorized transaction lists one.
type Transaction struct {
	Date           string            `xml:"Date,attr"`
	Amount         string            `xml:"Amount,attr"`
	TransferAmount string            `xml:"TransferAmount,attr"`
	Comment        *string           `xml:"Comment,attr"`
	TransactionID  IDRef             `xml:"TransactionID"`
	CategoryID     *IDRef            `xml:"CategoryID"`
	AccountIDs     []IDRef           `xml:"AccountID"`
	PayeeID        *IDRef            `xml:"PayeeID"`
	State          *TransactionState `xml:"TransactionState"`
}

// ID returns the transaction's source id.
func (t Transaction) ID() string {
	return t.TransactionID.ID
}

// Category returns the referenced category id, or UnassignedCategoryID
// when the transaction has none.
func (t Transaction) Category() string {
	if t.CategoryID == nil {
		return UnassignedCategoryID
	}
	return t.CategoryID.ID
}

// Payee returns the referenced payee id and whether one is present.
func (t Transaction) Payee() (string, bool) {
	if t.PayeeID == nil {
		return "", false
	}
	return t.PayeeID.ID, true
}

// Reconciled reports whether the transaction state is the reconciled code.
// The cleared state is not distinguished.
func (t Transaction) Reconciled() bool {
	return t.State != nil && t.State.State == StateReconciled
}

// Document holds every record of an AceMoney export, in source order.
type Document struct {
	Payees       []Payee
	Groups       []AccountGroup
	Accounts     []Account
	Categories   []Category
	Transactions []Transaction
}

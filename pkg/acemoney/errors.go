package acemoney

import "fmt"

// MissingReferenceError reports an id that was referenced but never defined.
type MissingReferenceError struct {
	Kind     string // payee, account group, account, category
	ID       string
	Referrer string
}

func (e *MissingReferenceError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s: unknown %s %q", e.Referrer, e.Kind, e.ID)
}

// MalformedRecordError reports a record field that could not be parsed or
// violates the structure the converter relies on.
type MalformedRecordError struct {
	Kind  string
	ID    string
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed %s %q: field %s=%q", e.Kind, e.ID, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// UnsupportedCurrencyError reports a currency code missing from the
// configured currency tables.
type UnsupportedCurrencyError struct {
	Code string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency %q", e.Code)
}

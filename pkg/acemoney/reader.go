package acemoney

import (
	"encoding/xml"
	"fmt"
	"io"
)

// record buffers the token subtree of one record element.
type record struct {
	name   string
	depth  int
	tokens []xml.Token
}

// Token replays the buffered subtree, so a record can be decoded with
// xml.NewTokenDecoder once its end element has been read.
func (r *record) Token() (xml.Token, error) {
	if len(r.tokens) == 0 {
		return nil, io.EOF
	}
	tok := r.tokens[0]
	r.tokens = r.tokens[1:]
	return tok, nil
}

// Read decodes an AceMoney XML export. Records are matched by element name
// at any depth, including records nested inside other records, so the
// container layout of the export does not matter. Each list keeps the order
// in which its records start.
func Read(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	var records, open []*record
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read AceMoney XML: %w", err)
		}
		tok = xml.CopyToken(tok)

		if start, ok := tok.(xml.StartElement); ok && isRecord(start.Name.Local) {
			rec := &record{name: start.Name.Local}
			records = append(records, rec)
			open = append(open, rec)
		}
		if len(open) == 0 {
			continue
		}

		for _, rec := range open {
			rec.tokens = append(rec.tokens, tok)
			switch tok.(type) {
			case xml.StartElement:
				rec.depth++
			case xml.EndElement:
				rec.depth--
			}
		}

		// records close innermost first
		for len(open) > 0 && open[len(open)-1].depth == 0 {
			open = open[:len(open)-1]
		}
	}

	doc := &Document{}
	for _, rec := range records {
		name := rec.name
		if err := doc.decode(xml.NewTokenDecoder(rec), name); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}

	return doc, nil
}

func isRecord(name string) bool {
	switch name {
	case "Payee", "AccountGroup", "Account", "Category", "Transaction":
		return true
	}
	return false
}

func (doc *Document) decode(dec *xml.Decoder, name string) error {
	switch name {
	case "Payee":
		var p Payee
		if err := dec.Decode(&p); err != nil {
			return err
		}
		doc.Payees = append(doc.Payees, p)
	case "AccountGroup":
		var g AccountGroup
		if err := dec.Decode(&g); err != nil {
			return err
		}
		doc.Groups = append(doc.Groups, g)
	case "Account":
		var a Account
		if err := dec.Decode(&a); err != nil {
			return err
		}
		doc.Accounts = append(doc.Accounts, a)
	case "Category":
		var c Category
		if err := dec.Decode(&c); err != nil {
			return err
		}
		doc.Categories = append(doc.Categories, c)
	case "Transaction":
		var t Transaction
		if err := dec.Decode(&t); err != nil {
			return err
		}
		doc.Transactions = append(doc.Transactions, t)
	}

	return nil
}

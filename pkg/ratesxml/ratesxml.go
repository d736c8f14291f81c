// Package ratesxml reads and writes the day-stamped FX rate list file:
//
//	<rates>
//	    <rate day="2020-01-01" currency="USD" fx="1.7612"/>
//	</rates>
package ratesxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/pkg/fx"
)

const dayLayout = "2006-01-02"

type rateElement struct {
	Day      string `xml:"day,attr"`
	Currency string `xml:"currency,attr"`
	FX       string `xml:"fx,attr"`
}

type ratesElement struct {
	XMLName xml.Name      `xml:"rates"`
	Rates   []rateElement `xml:"rate"`
}

// Read parses a rate list.
func Read(r io.Reader) ([]fx.Rate, error) {
	var doc ratesElement
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse rates XML: %w", err)
	}

	rates := make([]fx.Rate, 0, len(doc.Rates))
	for i, e := range doc.Rates {
		day, err := time.Parse(dayLayout, e.Day)
		if err != nil {
			return nil, fmt.Errorf("rate %d: invalid day %q: %w", i+1, e.Day, err)
		}
		if e.Currency == "" {
			return nil, fmt.Errorf("rate %d: missing currency", i+1)
		}
		value, err := decimal.NewFromString(e.FX)
		if err != nil {
			return nil, fmt.Errorf("rate %d: invalid fx %q: %w", i+1, e.FX, err)
		}

		rates = append(rates, fx.Rate{Currency: e.Currency, Day: day, Value: value})
	}

	return rates, nil
}

// ReadFile parses the rate list at path.
func ReadFile(path string) ([]fx.Rate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rates file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Write renders rates as an indented rate list.
func Write(w io.Writer, rates []fx.Rate) error {
	doc := ratesElement{Rates: make([]rateElement, 0, len(rates))}
	for _, r := range rates {
		doc.Rates = append(doc.Rates, rateElement{
			Day:      r.Day.Format(dayLayout),
			Currency: r.Currency,
			FX:       r.Value.String(),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write rates XML: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode rates XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush rates XML: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}

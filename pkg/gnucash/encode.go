package gnucash

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Encode writes doc as an indented, uncompressed GnuCash XML file.
func Encode(w io.Writer, doc *Document) error {
	doc.Book.updateCounts()

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush document: %w", err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Package guid generates the opaque identifiers of the GnuCash document.
package guid

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Generator returns a new process-unique identifier on every call.
type Generator func() string

// New returns a random GUID in GnuCash form: 32 lower-case hex digits.
func New() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Sequence returns a deterministic Generator producing prefix + a zero-padded
// counter, padded to 32 characters. Meant for tests and reproducible output.
func Sequence(prefix string) Generator {
	width := 32 - len(prefix)
	if width < 1 {
		width = 1
	}

	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%0*d", prefix, width, n)
	}
}

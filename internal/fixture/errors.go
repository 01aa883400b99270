package fixture

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every fixture tool. Concrete errors wrap one of
// these so callers can pick an exit code with errors.Is.
var (
	ErrMalformedInput  = errors.New("malformed input")
	ErrSchemaViolation = errors.New("schema violation")
	ErrConflict        = errors.New("fixture already exists")
	ErrNotFound        = errors.New("not found")
)

// MalformedIndexRowError reports an index row that is not a list of exactly
// Width integers.
type MalformedIndexRowError struct {
	Label string
	Row   int
	Width int
}

func (e *MalformedIndexRowError) Error() string {
	return fmt.Sprintf("%s[%d] must be a list of %d integers", e.Label, e.Row, e.Width)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *MalformedIndexRowError) Unwrap() error {
	return ErrMalformedInput
}

// malformed builds a MalformedInput error with a formatted message.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

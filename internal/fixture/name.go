package fixture

import (
	"strings"
	"unicode"
)

// ValidateName checks that name can be used as a fixture file key: non-empty,
// no path separators, no whitespace.
func ValidateName(name string) error {
	if name == "" {
		return malformed("fixture name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return malformed("fixture name %q must not contain slashes or whitespace", name)
	}
	return nil
}

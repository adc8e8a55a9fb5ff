package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ID is a namespaced permission identifier in resource:action form,
// e.g. "project:write".
type ID string

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*:[a-z][a-z0-9_]*$`)

// ParseID validates raw input into an ID. Identifiers are lower-cased
// before validation so call sites can pass user input directly.
func ParseID(raw string) (ID, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if !idPattern.MatchString(raw) {
		return "", fmt.Errorf("catalog: malformed permission id %q", raw)
	}
	return ID(raw), nil
}

// Resource returns the namespace part of the identifier.
func (id ID) Resource() string {
	if i := strings.IndexByte(string(id), ':'); i >= 0 {
		return string(id)[:i]
	}
	return string(id)
}

// Action returns the action part of the identifier.
func (id ID) Action() string {
	if i := strings.IndexByte(string(id), ':'); i >= 0 {
		return string(id)[i+1:]
	}
	return ""
}

func (id ID) String() string { return string(id) }

// Package normalize canonicalizes user-entered keys so that lookups are
// stable across case and spacing differences.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// Name trims and collapses internal whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key returns the case-folded form of Name(s). It is used for donor
// identity and warehouse item names, where "Rice", " rice " and "RICE"
// are the same thing.
func Key(s string) string {
	return cases.Fold().String(Name(s))
}

// Code returns an uppercase branch code with no surrounding space.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Role returns a lowercased, trimmed role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BranchParam returns a branch id query value, with "all" meaning none.
func BranchParam(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

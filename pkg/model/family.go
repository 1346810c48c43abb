// Package model defines the canonical, family-agnostic data model shared by
// fact gathering, reconciliation and command execution.
package model

import "fmt"

// Family identifies a supported switch family. Each family speaks its own
// web dialect; all model-specific knowledge lives behind the transport
// adapter selected for the family.
type Family string

const (
	// FamilyGS1900 uses the token-CGI dialect (dispatcher.cgi, authId token).
	FamilyGS1900 Family = "gs1900"
	// FamilyGS1915 uses the session-form dialect with lower-case page names.
	FamilyGS1915 Family = "gs1915"
	// FamilyGS1920 uses the session-form dialect with mixed-case page names.
	FamilyGS1920 Family = "gs1920"
)

// ParseFamily parses a family name (model hint, inventory value).
func ParseFamily(s string) (Family, error) {
	switch Family(s) {
	case FamilyGS1900, FamilyGS1915, FamilyGS1920:
		return Family(s), nil
	}
	return "", fmt.Errorf("unknown switch family %q", s)
}

func (f Family) String() string {
	return string(f)
}

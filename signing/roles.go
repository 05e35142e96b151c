package signing

import (
	"sort"
	"strings"
)

// Family is the canonical role a free-text signer label resolves to.
type Family string

const (
	FamilyNone         Family = ""
	FamilyCEO          Family = "ceo"
	FamilyBoard        Family = "board"
	FamilyIncorporator Family = "incorporator"
	FamilyOfficer      Family = "officer"
	FamilyExecutive    Family = "executive"
	FamilyEmployee     Family = "employee"
	FamilySigner       Family = "signer"
)

// AutoSignable reports whether the authority signature may be applied
// for this family without a human signer.
func (f Family) AutoSignable() bool {
	return f == FamilyCEO || f == FamilyBoard || f == FamilyIncorporator
}

// containment reports whether labels of this family match by substring.
func (f Family) containment() bool {
	return f == FamilyOfficer || f == FamilyExecutive || f == FamilyEmployee
}

// roleAliases is consulted before any token search. Keys are normalized.
var roleAliases = map[string]Family{
	"ceo":                     FamilyCEO,
	"chief_executive_officer": FamilyCEO,
	"chief_executive":         FamilyCEO,
	"board":                   FamilyBoard,
	"board_of_directors":      FamilyBoard,
	"directors":               FamilyBoard,
	"incorporator":            FamilyIncorporator,
	"sole_incorporator":       FamilyIncorporator,
	"signer":                  FamilySigner,
	"officer":                 FamilyOfficer,
	"executive":               FamilyExecutive,
	"exec":                    FamilyExecutive,
	"employee":                FamilyEmployee,
	"staff":                   FamilyEmployee,
}

// familyTokens is searched in order when the alias table has no entry.
var familyTokens = []Family{FamilyOfficer, FamilyExecutive, FamilyEmployee}

// NormalizeRole lowercases a label and folds spaces and hyphens to underscores.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.NewReplacer(" ", "_", "-", "_").Replace(r)
	for strings.Contains(r, "__") {
		r = strings.ReplaceAll(r, "__", "_")
	}
	return r
}

// FamilyOf resolves a label through the alias table, then through the
// family token list. Unknown labels resolve to FamilyNone.
func FamilyOf(role string) Family {
	r := NormalizeRole(role)
	if r == "" {
		return FamilyNone
	}
	if f, ok := roleAliases[r]; ok {
		return f
	}
	for _, f := range familyTokens {
		if strings.Contains(r, string(f)) {
			return f
		}
	}
	return FamilyNone
}

// IsAutoSignableRole reports whether a required signer label is covered by
// the authority signature.
func IsAutoSignableRole(role string) bool {
	return FamilyOf(role).AutoSignable()
}

// RoleMatches applies the matching policy, first rule wins:
// exact normalized match, blank field role (global field), family
// containment for officer/executive/employee, aliases of the same
// auto-signable family, literal signer on either side.
func RoleMatches(fieldRole, requiredRole string) bool {
	f := NormalizeRole(fieldRole)
	r := NormalizeRole(requiredRole)
	if r == "" {
		return false
	}
	if f == r {
		return true
	}
	if f == "" {
		return true
	}
	if familyContains(f, r) {
		return true
	}
	ff, rf := FamilyOf(f), FamilyOf(r)
	// A bare alias ("staff", "exec") stands for its whole family.
	if ff == rf && ff.containment() && (isAlias(f, ff) || isAlias(r, rf)) {
		return true
	}
	if ff == rf && ff.AutoSignable() {
		return true
	}
	return ff == FamilySigner || rf == FamilySigner
}

// Class is the outcome of resolving one field's role.
type Class string

const (
	ClassAutoSignable      Class = "auto-signable"
	ClassMustMatchRequired Class = "must-match-required"
	ClassUnconstrained     Class = "unconstrained"
)

// Resolution is the classification of one field plus the required roles it covers.
type Resolution struct {
	Class   Class
	Family  Family
	Matched []string
}

// ResolveRole classifies a field role against the document's required
// signers. A field whose own label is auto-signable is auto-signable. A
// global or wildcard field is auto-signable only when every required role
// it covers is auto-signable. Otherwise a field covering any required role
// must be signed by that signer, and a field covering none is unconstrained.
func ResolveRole(fieldRole string, required []string) Resolution {
	fam := FamilyOf(fieldRole)
	matched := MatchedRoles(fieldRole, required)
	res := Resolution{Family: fam, Matched: matched}

	switch {
	case fam.AutoSignable():
		res.Class = ClassAutoSignable
	case len(matched) > 0 && isWildcard(fieldRole) && allAutoSignable(matched):
		res.Class = ClassAutoSignable
	case len(matched) > 0:
		res.Class = ClassMustMatchRequired
	default:
		res.Class = ClassUnconstrained
	}
	return res
}

// MatchedRoles returns the required roles a field role covers, in input order
// with duplicates removed.
func MatchedRoles(fieldRole string, required []string) []string {
	var out []string
	seen := make(map[string]bool, len(required))
	for _, r := range required {
		key := NormalizeRole(r)
		if key == "" || seen[key] {
			continue
		}
		if RoleMatches(fieldRole, r) {
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}

// familyContains reports whether one normalized label contains the other
// and the pair carries a containment family token. The token may sit
// anywhere in a multi-word label ("executive_officer").
func familyContains(f, r string) bool {
	if !strings.Contains(f, r) && !strings.Contains(r, f) {
		return false
	}
	for _, fam := range familyTokens {
		if strings.Contains(f, string(fam)) || strings.Contains(r, string(fam)) {
			return true
		}
	}
	return false
}

func isAlias(normalized string, f Family) bool {
	a, ok := roleAliases[normalized]
	return ok && a == f
}

func isWildcard(role string) bool {
	return NormalizeRole(role) == "" || FamilyOf(role) == FamilySigner
}

func allAutoSignable(roles []string) bool {
	for _, r := range roles {
		if !IsAutoSignableRole(r) {
			return false
		}
	}
	return true
}

// UniqueRoles trims, drops blanks and duplicates (by normalized form) and
// keeps the first spelling of each role.
func UniqueRoles(roles []string) []string {
	var out []string
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		t := strings.TrimSpace(r)
		key := NormalizeRole(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// SortedRoles returns a sorted copy, used for stable error messages.
func SortedRoles(roles []string) []string {
	out := append([]string(nil), roles...)
	sort.Strings(out)
	return out
}

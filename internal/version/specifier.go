package version

import (
	"fmt"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Specifier is a single version constraint such as ">=1.0" or "==2.*".
type Specifier struct {
	Op       string
	Version  string // version text as written, without a trailing ".*"
	Wildcard bool

	spec pep440.Specifiers
	ok   bool // false for "===" against text that is not a PEP 440 version
}

// Operators in match order; longer operators come before their prefixes.
var operators = []string{"~=", "===", "==", "!=", "<=", ">=", "<", ">"}

// ParseSpecifier parses one constraint. Whitespace between the operator and
// the version is allowed.
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)

	var op string
	for _, candidate := range operators {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Specifier{}, fmt.Errorf("invalid specifier %q: missing operator", s)
	}

	text := strings.TrimSpace(s[len(op):])
	if text == "" {
		return Specifier{}, fmt.Errorf("invalid specifier %q: missing version", s)
	}
	if strings.ContainsAny(text, " \t;,") {
		return Specifier{}, fmt.Errorf("invalid specifier %q", s)
	}

	spec := Specifier{Op: op, Version: text}
	if strings.HasSuffix(text, ".*") {
		spec.Wildcard = true
		spec.Version = strings.TrimSuffix(text, ".*")
	}

	// The library matches the version grammar case-sensitively.
	compiled, err := pep440.NewSpecifiers(op + normalizeLocal(strings.ToLower(text)))
	if err != nil {
		if op == "===" {
			return spec, nil
		}
		return Specifier{}, fmt.Errorf("invalid specifier %q: %w", s, err)
	}
	spec.spec = compiled
	spec.ok = true
	return spec, nil
}

// String returns the specifier as written, normalized to no inner spaces.
func (s Specifier) String() string {
	if s.Wildcard {
		return s.Op + s.Version + ".*"
	}
	return s.Op + s.Version
}

// Contains reports whether v satisfies s. Pre-releases are rejected unless
// prereleases is true.
//
// pep440.WithPreRelease would also switch off the rule that "<V" excludes
// pre-releases of V, so pre-releases are filtered here and Check always runs
// without it.
func (s Specifier) Contains(v *Version, prereleases bool) bool {
	if !prereleases && v.IsPrerelease() {
		return false
	}
	if !s.ok {
		return false
	}
	return s.spec.Check(v.v)
}

// SpecifierSet is the conjunction of the constraints attached to one
// requirement.
type SpecifierSet []Specifier

// ParseSpecifierSet parses a comma separated list of constraints. The empty
// string yields an empty set; an empty element anywhere else is an error.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var set SpecifierSet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty specifier in %q", s)
		}
		spec, err := ParseSpecifier(part)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// Contains reports whether v satisfies every specifier in the set.
func (ss SpecifierSet) Contains(v *Version, prereleases bool) bool {
	if !prereleases && v.IsPrerelease() {
		return false
	}
	for _, s := range ss {
		if !s.Contains(v, prereleases) {
			return false
		}
	}
	return true
}

func (ss SpecifierSet) String() string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

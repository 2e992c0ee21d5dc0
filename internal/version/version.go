// Package version implements PEP 440 versions and specifiers on top of
// github.com/aquasecurity/go-pep440-version.
package version

import (
	"fmt"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Version is a parsed PEP 440 version.
type Version struct {
	v pep440.Version
}

// Parse parses and normalizes a PEP 440 version string. Numeric segments
// are limited to 64 bits; larger values are rejected as invalid.
func Parse(s string) (*Version, error) {
	v, err := pep440.Parse(normalizeLocal(strings.TrimSpace(s)))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return &Version{v: v}, nil
}

// normalizeLocal rewrites the separators of a local segment to dots, so
// that "1.0+ubuntu-1" and "1.0+ubuntu.1" compare equal.
func normalizeLocal(s string) string {
	i := strings.IndexByte(s, '+')
	if i < 0 {
		return s
	}
	return s[:i+1] + strings.NewReplacer("-", ".", "_", ".").Replace(s[i+1:])
}

// IsPrerelease reports whether v is a pre-release or a development release.
func (v *Version) IsPrerelease() bool {
	return v.v.IsPreRelease()
}

// String returns the normalized form of v.
func (v *Version) String() string {
	return v.v.String()
}

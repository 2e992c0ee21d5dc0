package dist

import (
	"regexp"
	"strings"

	"github.com/frederic-klein/reqsync/internal/marker"
	"github.com/frederic-klein/reqsync/internal/version"
)

// Requirement represents one parsed requirement line.
type Requirement struct {
	Raw        string               // the line as written; passed to the installer unchanged
	Name       string               // distribution name without extras, e.g. "opencv-python"
	Extras     []string             // e.g. ["socks"] for "requests[socks]"
	URL        string               // set for "name @ url" requirements
	Marker     *marker.Marker       // nil when the requirement always applies
	Specifiers version.SpecifierSet // empty means any installed version is acceptable
}

// Key returns the normalized distribution name used for lookups.
func (r *Requirement) Key() string {
	return NormalizeName(r.Name)
}

// Installed represents a distribution present in the target environment.
type Installed struct {
	Name    string
	Version string
}

var separatorRe = regexp.MustCompile(`[-_.]+`)

// NormalizeName folds a distribution name so that spellings such as
// "Foo_Bar", "foo.bar" and "foo-bar" compare equal.
func NormalizeName(name string) string {
	return separatorRe.ReplaceAllString(strings.ToLower(name), "-")
}

package requirement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/frederic-klein/reqsync/internal/dist"
	"github.com/frederic-klein/reqsync/internal/marker"
	"github.com/frederic-klein/reqsync/internal/version"
)

// ParseError reports a requirement line that does not follow PEP 508.
type ParseError struct {
	Line string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid requirement %q: %s", e.Line, e.Msg)
}

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraRe   = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
	urlMarkRe = regexp.MustCompile(`\s;`)
)

// Parse parses a single requirement such as
// `requests[socks]>=2.8.1,<3 ; python_version >= "3.8"`.
// The returned Requirement keeps line verbatim in Raw.
func Parse(line string) (*dist.Requirement, error) {
	text := strings.TrimSpace(line)
	fail := func(format string, args ...interface{}) (*dist.Requirement, error) {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
	}

	name := nameRe.FindString(text)
	if name == "" {
		return fail("expected package name at start")
	}
	req := &dist.Requirement{Raw: line, Name: name}
	rest := strings.TrimLeft(text[len(name):], " \t")

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return fail("expected closing bracket for extras")
		}
		if list := strings.TrimSpace(rest[1:end]); list != "" {
			for _, extra := range strings.Split(list, ",") {
				extra = strings.TrimSpace(extra)
				if extra == "" {
					return fail("empty extra in %q", rest[:end+1])
				}
				if !extraRe.MatchString(extra) {
					return fail("invalid extra %q", extra)
				}
				req.Extras = append(req.Extras, extra)
			}
		}
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}

	var markerText string
	hasMarker := false

	if strings.HasPrefix(rest, "@") {
		rest = strings.TrimSpace(rest[1:])
		// URLs may contain ';' so only whitespace followed by ';' starts a marker.
		if loc := urlMarkRe.FindStringIndex(rest); loc != nil {
			markerText = rest[loc[1]:]
			hasMarker = true
			rest = rest[:loc[0]]
		}
		url := strings.TrimSpace(rest)
		if url == "" {
			return fail("expected URL after @")
		}
		if strings.ContainsAny(url, " \t") {
			return fail("unexpected text after URL")
		}
		if !strings.Contains(url, "://") && !strings.HasPrefix(url, "file:") {
			return fail("invalid URL %q", url)
		}
		req.URL = url
	} else {
		specText := rest
		if i := strings.IndexByte(rest, ';'); i >= 0 {
			specText = rest[:i]
			markerText = rest[i+1:]
			hasMarker = true
		}
		specs, err := parseSpecifiers(specText)
		if err != nil {
			return fail("%v", err)
		}
		req.Specifiers = specs
	}

	if hasMarker {
		if strings.TrimSpace(markerText) == "" {
			return fail("expected marker after semicolon")
		}
		m, err := marker.Parse(markerText)
		if err != nil {
			return fail("%v", err)
		}
		req.Marker = m
	}

	return req, nil
}

func parseSpecifiers(s string) (version.SpecifierSet, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil, nil
	}
	if !strings.ContainsRune("<>=!~", rune(s[0])) {
		return nil, fmt.Errorf("unexpected text %q after name", s)
	}
	return version.ParseSpecifierSet(s)
}

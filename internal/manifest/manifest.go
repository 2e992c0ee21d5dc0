// Package manifest reads requirements files and classifies their lines.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/frederic-klein/reqsync/internal/dist"
	"github.com/frederic-klein/reqsync/internal/requirement"
)

// Line is one line of a manifest as read, without its newline.
type Line struct {
	Number int
	Raw    string
}

// Kind classifies a manifest line.
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindDirective
	KindRequirement
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindDirective:
		return "directive"
	default:
		return "requirement"
	}
}

// Open reads the manifest at path.
func Open(path string) ([]Line, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read reads every line from r in order.
func Read(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		lines = append(lines, Line{Number: n, Raw: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return lines, nil
}

// Classify reports what kind of line text is. Leading and trailing
// whitespace is ignored.
func Classify(text string) Kind {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return KindBlank
	case strings.HasPrefix(trimmed, "#"):
		return KindComment
	case strings.HasPrefix(trimmed, "-"):
		// Covers both -r style and --find-links style options.
		return KindDirective
	}
	return KindRequirement
}

var inlineCommentRe = regexp.MustCompile(`\s+#.*$`)

// StripComment removes a trailing " # comment" from a requirement line.
func StripComment(text string) string {
	return strings.TrimSpace(inlineCommentRe.ReplaceAllString(text, ""))
}

// Entry is the parse outcome of one manifest line. For requirement lines
// exactly one of Req and Err is set.
type Entry struct {
	Line Line
	Kind Kind
	Text string // trimmed requirement text without inline comment
	Req  *dist.Requirement
	Err  error
}

// ParseLine classifies l and, for requirement lines, parses it.
func ParseLine(l Line) Entry {
	entry := Entry{Line: l, Kind: Classify(l.Raw)}
	if entry.Kind != KindRequirement {
		return entry
	}

	entry.Text = StripComment(l.Raw)
	entry.Req, entry.Err = requirement.Parse(entry.Text)
	return entry
}

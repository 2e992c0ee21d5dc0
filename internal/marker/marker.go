// Package marker parses and evaluates PEP 508 environment markers, the
// conditions after the semicolon of a requirement line such as
// `sys_platform == "win32" and python_version < "3.11"`.
package marker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/frederic-klein/reqsync/internal/version"
)

// Environment maps marker variable names to their values for the target
// interpreter.
type Environment map[string]string

// Variables are the marker names a requirement may reference.
var Variables = []string{
	"implementation_name",
	"implementation_version",
	"os_name",
	"platform_machine",
	"platform_python_implementation",
	"platform_release",
	"platform_system",
	"platform_version",
	"python_full_version",
	"python_version",
	"sys_platform",
	"extra",
}

var aliases = map[string]string{
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

func canonicalVariable(name string) (string, bool) {
	if a, ok := aliases[name]; ok {
		return a, true
	}
	for _, v := range Variables {
		if v == name {
			return v, true
		}
	}
	return "", false
}

// EvalError reports a marker that could not be evaluated against an
// environment.
type EvalError struct {
	Marker string
	Msg    string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating marker %q: %s", e.Marker, e.Msg)
}

// Marker is a parsed environment marker.
type Marker struct {
	raw  string
	root node
}

// String returns the marker text as written.
func (m *Marker) String() string {
	return m.raw
}

// Evaluate reports whether the marker holds in env. A variable the
// environment does not define is an *EvalError rather than false.
func (m *Marker) Evaluate(env Environment) (bool, error) {
	ok, err := m.root.eval(env)
	if err != nil {
		return false, &EvalError{Marker: m.raw, Msg: err.Error()}
	}
	return ok, nil
}

type node interface {
	eval(env Environment) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(env Environment) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return false, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return false, err
	}
	return l || r, nil
}

type andNode struct{ left, right node }

func (n andNode) eval(env Environment) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return false, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return false, err
	}
	return l && r, nil
}

type operand struct {
	variable string // canonical variable name; empty for a literal
	literal  string
}

func (o operand) resolve(env Environment) (string, error) {
	if o.variable == "" {
		return o.literal, nil
	}
	if v, ok := env[o.variable]; ok {
		return v, nil
	}
	if o.variable == "extra" {
		return "", nil
	}
	return "", fmt.Errorf("environment does not define %s", o.variable)
}

type compareNode struct {
	lhs, rhs operand
	op       string
}

func (n compareNode) eval(env Environment) (bool, error) {
	lhs, err := n.lhs.resolve(env)
	if err != nil {
		return false, err
	}
	rhs, err := n.rhs.resolve(env)
	if err != nil {
		return false, err
	}

	if n.lhs.variable == "extra" || n.rhs.variable == "extra" {
		lhs, rhs = normalizeExtra(lhs), normalizeExtra(rhs)
	}

	switch n.op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}

	if spec, err := version.ParseSpecifier(n.op + rhs); err == nil {
		if v, err := version.Parse(lhs); err == nil {
			return spec.Contains(v, true), nil
		}
	}

	switch n.op {
	case "==", "===":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	}
	return false, fmt.Errorf("cannot compare %q %s %q", lhs, n.op, rhs)
}

var extraSepRe = regexp.MustCompile(`[-_.]+`)

func normalizeExtra(s string) string {
	return extraSepRe.ReplaceAllString(strings.ToLower(s), "-")
}

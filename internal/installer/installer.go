// Package installer runs the package installer for requirement lines.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const stderrTail = 2048

// ExitError reports an installer run that did not succeed.
type ExitError struct {
	Arg    string
	Code   int
	Stderr string // last part of the installer's stderr
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("installing %q: exit status %d", e.Arg, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Pip installs requirements with `<python> -m pip install`.
type Pip struct {
	python string
	args   []string
	logger *zap.Logger

	Stdout io.Writer
	Stderr io.Writer
}

// NewPip creates an installer. extraArgs are passed to pip before the
// requirement, e.g. "--prefer-binary". Both of pip's output streams go to
// out; stdout is reserved for the report.
func NewPip(python string, extraArgs []string, out io.Writer, logger *zap.Logger) *Pip {
	w := &lockedWriter{w: out}
	return &Pip{
		python: python,
		args:   extraArgs,
		logger: logger,
		Stdout: w,
		Stderr: w,
	}
}

// lockedWriter serializes writes from the stdout and stderr copiers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}

// Command returns the argv used to install arg.
func (p *Pip) Command(arg string) []string {
	argv := []string{p.python, "-m", "pip", "install"}
	argv = append(argv, p.args...)
	return append(argv, arg)
}

// Install runs pip for a single requirement. arg is passed as one argument
// so extras and markers reach pip unchanged.
func (p *Pip) Install(ctx context.Context, arg, description string) error {
	p.logger.Info("Installing " + description)

	argv := p.Command(arg)
	tail := &tailWriter{max: stderrTail}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = p.Stdout
	cmd.Stderr = io.MultiWriter(p.Stderr, tail)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Arg: arg, Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(tail.String())}
		}
		return fmt.Errorf("running %s: %w", argv[0], err)
	}
	return nil
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	max int
	buf []byte
}

func (w *tailWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
	return len(b), nil
}

func (w *tailWriter) String() string {
	return string(w.buf)
}

// Request is one recorded installation.
type Request struct {
	Arg         string
	Description string
}

// Recorder collects installation requests instead of running them.
type Recorder struct {
	Requests []Request
	Err      error // returned from every Install call when set
}

// Install implements the installer contract.
func (r *Recorder) Install(_ context.Context, arg, description string) error {
	r.Requests = append(r.Requests, Request{Arg: arg, Description: description})
	return r.Err
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/idilsaglam/backlog/internal/api"
	"github.com/idilsaglam/backlog/internal/forms"
	"github.com/idilsaglam/backlog/internal/ui"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// usageError marks mistakes in how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	app := newApp(opts)
	defer app.close()

	root := NewRootCommand(app)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	return report(app.errOut, err)
}

// report prints err and maps it to an exit code.
func report(w io.Writer, err error) int {
	var ue *usageError
	var fe *friendlyError
	switch {
	case errors.As(err, &ue), forms.IsValidation(err), isCobraUsage(err):
		ui.Fail(w, err.Error())
		return ExitUsage
	case errors.Is(err, context.Canceled):
		return ExitFailure
	case errors.As(err, &fe):
		ui.Fail(w, fe.msg)
		return ExitFailure
	}
	ui.Fail(w, api.Message(err, err.Error()))
	return ExitFailure
}

func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "invalid argument", "flag needs an argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isattyFd(f.Fd())
}

// friendlyError shows the backend's explanation, or a fallback, while keeping the cause.
type friendlyError struct {
	msg string
	err error
}

func (e *friendlyError) Error() string { return e.msg }
func (e *friendlyError) Unwrap() error { return e.err }

func friendly(err error, fallback string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &friendlyError{msg: api.Message(err, fallback), err: err}
}

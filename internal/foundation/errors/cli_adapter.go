package errors

import (
	"fmt"
	"io"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch c.Category() {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryNotFound:
		return 3
	case CategoryNetwork:
		return 8
	case CategoryContent, CategoryFileSystem:
		return 11
	case CategoryCache, CategoryVersion:
		return 9
	case CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// Report prints a user-facing message to w. With verbose output the error
// context is printed as well.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) {
	if err == nil {
		return
	}
	c, ok := AsClassified(err)
	if !ok {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %s\n", c.Message())
	if c.Cause() != nil {
		_, _ = fmt.Fprintf(w, "Cause: %v\n", c.Cause())
	}
	if a.verbose {
		for k, v := range c.Context() {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, v)
		}
		a.logger.Debug("Command failed", slog.String("category", string(c.Category())), slog.String("error", c.Error()))
	}
}

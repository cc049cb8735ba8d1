package cmdutil

import (
	"context"

	"github.com/pkg/errors"

	"kgraph/internal/config"
)

// ErrUsage marks command-line mistakes that flag parsing cannot catch.
var ErrUsage = errors.New("usage")

// Process exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2 // bad flags or configuration
	ExitRuntime   = 3 // input, build or output failure
	ExitCancelled = 130
)

// ExitCode maps an error returned by a command to its exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCancelled
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitRuntime
	}
}

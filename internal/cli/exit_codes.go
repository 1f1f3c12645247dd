package cli

import (
	stderrors "errors"

	"github.com/debbump/debbump/internal/bump"
	clierrors "github.com/debbump/debbump/internal/errors"
)

// Exit codes for the debbump CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a runtime or external tool failure
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments or configuration
	ExitInvalidArguments = 3

	// ExitEnvironment indicates the tree or host is not usable (wrong directory, missing tool)
	ExitEnvironment = 4

	// ExitTimeout indicates the configured timeout expired
	ExitTimeout = 5
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var timeoutErr *bump.TimeoutError
	if stderrors.As(err, &timeoutErr) {
		return ExitTimeout
	}

	cliErr := clierrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case clierrors.Argument, clierrors.Configuration:
		return ExitInvalidArguments
	case clierrors.Environment:
		return ExitEnvironment
	default:
		return ExitFailure
	}
}

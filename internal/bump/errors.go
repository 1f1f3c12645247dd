package bump

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/debbump/debbump/internal/shell"
	"github.com/debbump/debbump/internal/version"
)

// TimeoutError reports a run stopped by the configured timeout.
type TimeoutError struct {
	Timeout time.Duration
	Step    string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v during %q (hint: increase timeout in config)", e.Timeout, e.Step)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// classify converts a step failure into a CLIError. fallback is the
// category used when err carries no more specific information.
func (s *Synchronizer) classify(err error, step string, fallback clierrors.ErrorCategory) *clierrors.CLIError {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var (
		execErr  *exec.Error
		exitErr  *shell.ExitError
		parseErr *version.ParseError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && s.cfg.Timeout > 0:
		timeout := &TimeoutError{Timeout: s.cfg.TimeoutDuration(), Step: step, Err: err}
		return clierrors.Wrap(timeout, clierrors.Runtime,
			"Raise the timeout setting or set it to 0 to disable it")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "interrupted during "+step)
	case errors.As(err, &execErr) && errors.Is(err, exec.ErrNotFound):
		return clierrors.MissingTool(execErr.Name, err)
	case errors.As(err, &parseErr):
		return clierrors.WrapWithMessage(err, clierrors.Parse, step)
	case errors.As(err, &exitErr):
		return clierrors.WrapWithMessage(err, clierrors.ExternalTool, step)
	}
	return clierrors.WrapWithMessage(err, fallback, step)
}

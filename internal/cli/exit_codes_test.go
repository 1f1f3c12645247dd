package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/debbump/debbump/internal/bump"
	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	timeout := &bump.TimeoutError{Step: bump.StepOrig, Err: context.DeadlineExceeded}

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":           {err: nil, want: ExitSuccess},
		"plain error":   {err: errors.New("boom"), want: ExitFailure},
		"argument":      {err: clierrors.New(clierrors.Argument, "bad"), want: ExitInvalidArguments},
		"configuration": {err: clierrors.NewConfigError("bad"), want: ExitInvalidArguments},
		"environment":   {err: clierrors.NotRepositoryRoot(".ci"), want: ExitEnvironment},
		"parse":         {err: clierrors.New(clierrors.Parse, "bad"), want: ExitFailure},
		"external tool": {err: clierrors.New(clierrors.ExternalTool, "bad"), want: ExitFailure},
		"timeout":       {err: clierrors.Wrap(timeout, clierrors.Runtime), want: ExitTimeout},
		"wrapped":       {err: fmt.Errorf("running: %w", clierrors.NotRepositoryRoot(".ci")), want: ExitEnvironment},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

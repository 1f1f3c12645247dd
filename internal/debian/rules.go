package debian

import (
	"context"
	"fmt"

	"github.com/debbump/debbump/internal/shell"
	"go.uber.org/zap"
)

// Rules invokes targets of the packaging makefile.
type Rules struct {
	Runner shell.Runner
	// Path is the rules file relative to the tree root ("debian/rules").
	Path          string
	ControlTarget string
	OrigTarget    string
	Logger        *zap.Logger
}

// Control regenerates debian/control. The kernel packaging rules exit 1 after
// generating the file successfully, so a non-zero exit is logged and ignored.
// Failures to run the rules file at all are still returned.
func (r *Rules) Control(ctx context.Context) error {
	err := r.Runner.Run(ctx, r.Path, r.ControlTarget)
	if code := shell.ExitCode(err); code > 0 {
		r.log().Warn("ignoring non-zero exit of control target",
			zap.String("target", r.ControlTarget), zap.Int("exit_code", code))
		return nil
	}
	if err != nil {
		return fmt.Errorf("generating %s: %w", r.ControlTarget, err)
	}
	return nil
}

// Orig runs the orig target, which applies the packaging patches to the
// working tree.
func (r *Rules) Orig(ctx context.Context) error {
	if err := r.Runner.Run(ctx, r.Path, r.OrigTarget); err != nil {
		return fmt.Errorf("running %s %s: %w", r.Path, r.OrigTarget, err)
	}
	return nil
}

func (r *Rules) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

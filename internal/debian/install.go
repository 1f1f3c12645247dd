package debian

import (
	"context"
	"errors"
	"fmt"

	"github.com/debbump/debbump/internal/shell"
	"github.com/google/shlex"
)

// Installer installs build-time tool dependencies with the system package manager.
type Installer struct {
	Runner shell.Runner
	// Command is the install command line, e.g. "apt-get -y install".
	// It is split shell-style; packages are appended as arguments.
	Command string
}

// Install runs the install command for pkgs. An empty package list is a no-op.
func (i *Installer) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}

	argv, err := shlex.Split(i.Command)
	if err != nil {
		return fmt.Errorf("parsing install command %q: %w", i.Command, err)
	}
	if len(argv) == 0 {
		return errors.New("install command is empty")
	}

	args := append(argv[1:len(argv):len(argv)], pkgs...)
	if err := i.Runner.Run(ctx, argv[0], args...); err != nil {
		return fmt.Errorf("installing %v: %w", pkgs, err)
	}
	return nil
}

package debian

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/debbump/debbump/internal/shell"
	"github.com/debbump/debbump/internal/shell/shelltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDpkgParser(t *testing.T) {
	t.Parallel()

	runner := shelltest.NewFakeRunner().
		On(shelltest.Response{Stdout: "5.4.0-2\n"}, "dpkg-parsechangelog", "-SVersion").
		On(shelltest.Response{Stdout: "tempesta-fw\n"}, "dpkg-parsechangelog", "-SSource")
	p := &DpkgParser{Runner: runner}

	v, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.4.0-2", v)

	s, err := p.Source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tempesta-fw", s)
}

func TestDpkgParser_Failure(t *testing.T) {
	t.Parallel()

	runner := shelltest.NewFakeRunner().
		On(shelltest.Response{ExitCode: 255}, "dpkg-parsechangelog", "-SVersion")

	_, err := (&DpkgParser{Runner: runner}).Version(context.Background())
	assert.ErrorContains(t, err, "querying changelog Version")
	assert.Equal(t, 255, shell.ExitCode(err))
}

func TestNativeParser(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changelog")
	require.NoError(t, os.WriteFile(path, []byte("tempesta-fw (5.4.0-2) unstable; urgency=medium\n\n  * x\n"), 0o644))
	p := &NativeParser{Path: path}

	v, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.4.0-2", v)

	s, err := p.Source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tempesta-fw", s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Version(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRules_ControlToleratesNonZeroExit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		resp    shelltest.Response
		wantErr bool
	}{
		"exit 0":        {resp: shelltest.Response{}},
		"exit 1":        {resp: shelltest.Response{ExitCode: 1}},
		"exit 2":        {resp: shelltest.Response{ExitCode: 2}},
		"not runnable":  {resp: shelltest.Response{Err: exec.ErrNotFound}, wantErr: true},
		"cancelled run": {resp: shelltest.Response{Err: context.Canceled}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := shelltest.NewFakeRunner().On(tt.resp, "debian/rules", "debian/control")
			r := &Rules{Runner: runner, Path: "debian/rules", ControlTarget: "debian/control", OrigTarget: "orig"}

			err := r.Control(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{"debian/rules debian/control"}, runner.Commands())
		})
	}
}

func TestRules_OrigFailureIsFatal(t *testing.T) {
	t.Parallel()

	runner := shelltest.NewFakeRunner().On(shelltest.Response{ExitCode: 2}, "debian/rules", "orig")
	r := &Rules{Runner: runner, Path: "debian/rules", ControlTarget: "debian/control", OrigTarget: "orig"}

	err := r.Orig(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, shell.ExitCode(err))
}

func TestInstaller(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		command  string
		pkgs     []string
		resp     shelltest.Response
		want     []string
		wantErr  string
		exitCode int
	}{
		"apt-get": {
			command: "apt-get -y install",
			pkgs:    []string{"kernel-wedge", "equivs"},
			want:    []string{"apt-get -y install kernel-wedge equivs"},
		},
		"quoted option": {
			command: `apt-get -o "Dpkg::Options::=--force-confdef" -y install`,
			pkgs:    []string{"equivs"},
			want:    []string{"apt-get -o Dpkg::Options::=--force-confdef -y install equivs"},
		},
		"no packages": {
			command: "apt-get -y install",
			want:    []string{},
		},
		"empty command": {
			command: "  ",
			pkgs:    []string{"equivs"},
			want:    []string{},
			wantErr: "install command is empty",
		},
		"unbalanced quote": {
			command: `apt-get "-y install`,
			pkgs:    []string{"equivs"},
			want:    []string{},
			wantErr: "parsing install command",
		},
		"package manager fails": {
			command:  "apt-get -y install",
			pkgs:     []string{"equivs"},
			resp:     shelltest.Response{ExitCode: 100},
			want:     []string{"apt-get -y install equivs"},
			wantErr:  "installing [equivs]",
			exitCode: 100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := shelltest.NewFakeRunner().On(tt.resp, "apt-get", "-y", "install", "equivs")
			err := (&Installer{Runner: runner, Command: tt.command}).Install(context.Background(), tt.pkgs...)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				if tt.exitCode != 0 {
					var exitErr *shell.ExitError
					assert.True(t, errors.As(err, &exitErr))
					assert.Equal(t, tt.exitCode, exitErr.Code)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, runner.Commands())
		})
	}
}

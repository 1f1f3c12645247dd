package shelltest

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/debbump/debbump/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRunner(t *testing.T) {
	t.Parallel()

	hooked := false
	runner := NewFakeRunner().
		On(Response{Stdout: "a\nb\n"}, "git", "log").
		On(Response{ExitCode: 2}, "debian/rules", "orig").
		On(Response{Err: exec.ErrNotFound, Hook: func() { hooked = true }}, "apt-get", "-y", "install")
	ctx := context.Background()

	out, err := runner.Output(ctx, "git", "log")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", out)

	var lines []string
	require.NoError(t, runner.Lines(ctx, func(line string) error {
		lines = append(lines, line)
		return nil
	}, "git", "log"))
	assert.Equal(t, []string{"a", "b"}, lines)

	err = runner.Run(ctx, "debian/rules", "orig")
	assert.Equal(t, 2, shell.ExitCode(err))

	err = runner.Run(ctx, "apt-get", "-y", "install")
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.True(t, hooked)

	require.NoError(t, runner.Run(ctx, "unscripted"))

	assert.Equal(t, []string{
		"git log", "git log", "debian/rules orig", "apt-get -y install", "unscripted",
	}, runner.Commands())
	assert.Error(t, runner.Calls()[2].Error)
}

func TestFakeRunner_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFakeRunner().Run(ctx, "git", "describe")
	assert.ErrorIs(t, err, context.Canceled)
}

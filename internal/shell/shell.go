// Package shell runs the external programs debbump orchestrates (git, dpkg,
// apt-get, debian/rules). Every call blocks until the child exits and takes a
// context; cancelling the context kills the child.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxLineSize bounds a single streamed line. Commit subjects are short but
// kernel history has a few multi-kilobyte ones.
const maxLineSize = 1 << 20

// stderrTail is how much captured stderr an ExitError keeps.
const stderrTail = 4 << 10

// Runner executes external commands.
type Runner interface {
	// Run executes a command and waits for it to finish.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its stdout without trailing newlines.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Lines executes a command and calls fn for each stdout line, in order,
	// while the command is still running. An error from fn stops the command.
	Lines(ctx context.Context, fn func(line string) error, name string, args ...string) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// ExitCode returns the exit code carried by err, or -1 when err is not an ExitError.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// CommandFunc creates the *exec.Cmd for a call. Tests swap it to re-exec the
// test binary as a fake program.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Dir is the working directory of every command.
	Dir string
	// Stdout and Stderr receive the output of Run. When nil, Run output is
	// discarded except for the stderr tail kept for errors.
	Stdout io.Writer
	Stderr io.Writer
	// Env, when non-empty, replaces the inherited environment.
	Env []string
	// Logger receives debug lines per command; nil disables logging.
	Logger *zap.Logger
	// Command overrides exec.CommandContext.
	Command CommandFunc
}

var _ Runner = (*Exec)(nil)

func (e *Exec) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	newCmd := e.Command
	if newCmd == nil {
		newCmd = exec.CommandContext
	}
	cmd := newCmd(ctx, name, args...)
	if e.Dir != "" {
		cmd.Dir = e.Dir
	}
	if len(e.Env) > 0 {
		cmd.Env = e.Env
	}
	return cmd
}

func (e *Exec) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	cmd := e.command(ctx, name, args...)

	tail := &tailBuffer{max: stderrTail}
	cmd.Stdout = e.Stdout
	cmd.Stderr = tail
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(e.Stderr, tail)
	}

	return e.finish(ctx, argv(name, args), time.Now(), cmd.Run(), tail.String())
}

// Output implements Runner.
func (e *Exec) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := e.command(ctx, name, args...)

	var stdout bytes.Buffer
	tail := &tailBuffer{max: stderrTail}
	cmd.Stdout = &stdout
	cmd.Stderr = tail

	err := e.finish(ctx, argv(name, args), time.Now(), cmd.Run(), tail.String())
	if err != nil {
		return "", err
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}

// Lines implements Runner.
func (e *Exec) Lines(ctx context.Context, fn func(line string) error, name string, args ...string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	cmd := e.command(ctx, name, args...)
	tail := &tailBuffer{max: stderrTail}
	cmd.Stderr = tail

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe for %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return e.finish(ctx, argv(name, args), start, err, "")
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var fnErr error
	for scanner.Scan() {
		if fnErr = fn(scanner.Text()); fnErr != nil {
			cancel()
			break
		}
	}
	scanErr := scanner.Err()
	if fnErr != nil || scanErr != nil {
		// Drain so the child is not blocked on a full pipe while being killed.
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	switch {
	case fnErr != nil:
		return fnErr
	case scanErr != nil:
		return fmt.Errorf("reading output of %s: %w", name, scanErr)
	}
	return e.finish(ctx, argv(name, args), start, waitErr, tail.String())
}

// finish logs a completed call and converts its error.
func (e *Exec) finish(ctx context.Context, argv []string, start time.Time, err error, stderr string) error {
	log := e.logger().With(zap.Strings("argv", argv), zap.Duration("took", time.Since(start)))
	if err == nil {
		log.Debug("command finished")
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("command interrupted", zap.Error(ctxErr))
		return fmt.Errorf("%s: %w", argv[0], ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Debug("command failed", zap.Int("exit_code", exitErr.ExitCode()))
		return &ExitError{Argv: argv, Code: exitErr.ExitCode(), Stderr: stderr}
	}

	log.Debug("command did not start", zap.Error(err))
	return fmt.Errorf("running %s: %w", argv[0], err)
}

func argv(name string, args []string) []string {
	return append([]string{name}, args...)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

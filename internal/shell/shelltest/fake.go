// Package shelltest provides a scripted shell.Runner for tests of packages
// that drive external programs.
package shelltest

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debbump/debbump/internal/shell"
	"github.com/debbump/debbump/internal/testutil"
)

// Response is the scripted result of one command.
type Response struct {
	// Stdout is returned by Output (trailing newlines trimmed) and split into
	// lines for Lines.
	Stdout string
	// ExitCode, when non-zero, makes the call fail with a *shell.ExitError.
	ExitCode int
	// Err, when set, is returned as-is (e.g. exec.ErrNotFound).
	Err error
	// Hook runs when the command is invoked, before the result is returned.
	Hook func()
}

// FakeRunner answers commands from a script keyed by the joined argv
// ("git describe --tags"). Unknown commands succeed with empty output.
// It is safe for concurrent use.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []testutil.CallRecord
}

var _ shell.Runner = (*FakeRunner)(nil)

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]Response)}
}

// On scripts the response for argv.
func (f *FakeRunner) On(resp Response, argv ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(argv, " ")] = resp
	return f
}

// Calls returns the recorded calls in invocation order.
func (f *FakeRunner) Calls() []testutil.CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]testutil.CallRecord(nil), f.calls...)
}

// Commands returns the joined argv of every call, in order.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = strings.TrimSpace(c.Method + " " + strings.Join(c.Args, " "))
	}
	return out
}

// DumpOnFailure writes the call log to a temp file when t fails and logs its path.
func (f *FakeRunner) DumpOnFailure(t testing.TB) {
	t.Helper()
	t.Cleanup(func() {
		if !t.Failed() {
			return
		}
		file, err := os.CreateTemp("", "debbump-calls-*.yaml")
		if err != nil {
			t.Logf("creating call log: %v", err)
			return
		}
		file.Close()
		if err := testutil.WriteCallLog(file.Name(), f.Calls()); err != nil {
			t.Logf("writing call log: %v", err)
			return
		}
		t.Logf("external calls written to %s", file.Name())
	})
}

func (f *FakeRunner) call(ctx context.Context, name string, args []string) (string, error) {
	argv := append([]string{name}, args...)

	f.mu.Lock()
	resp := f.responses[strings.Join(argv, " ")]
	f.mu.Unlock()

	if resp.Hook != nil {
		resp.Hook()
	}

	var err error
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case resp.Err != nil:
		err = resp.Err
	case resp.ExitCode != 0:
		err = &shell.ExitError{Argv: argv, Code: resp.ExitCode}
	}

	f.mu.Lock()
	f.calls = append(f.calls, testutil.CallRecord{
		Method:    name,
		Args:      args,
		Timestamp: time.Now(),
		Response:  resp.Stdout,
		ExitCode:  resp.ExitCode,
		Error:     err,
	})
	f.mu.Unlock()

	return resp.Stdout, err
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := f.call(ctx, name, args)
	return err
}

// Output implements shell.Runner.
func (f *FakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := f.call(ctx, name, args)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// Lines implements shell.Runner.
func (f *FakeRunner) Lines(ctx context.Context, fn func(line string) error, name string, args ...string) error {
	out, err := f.call(ctx, name, args)
	if err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}

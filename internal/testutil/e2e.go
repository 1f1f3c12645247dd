// Package testutil provides test utilities and helpers for debbump tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	// debbumpBinaryPath caches the built debbump binary path.
	debbumpBinaryPath string
	debbumpBuildOnce  sync.Once
	debbumpBuildErr   error
)

// TemplateDir is where E2E trees keep the packaging template.
const TemplateDir = ".ci/debian9/pkg/debian"

// mockAptGet records its arguments and exits with MOCK_APT_EXIT.
const mockAptGet = `#!/bin/sh
echo "apt-get $*" >> "$MOCK_LOG"
exit "${MOCK_APT_EXIT:-0}"
`

// mockParseChangelog answers -SSource and -SVersion from the first line of
// debian/changelog, which is all dpkg-parsechangelog is asked for.
const mockParseChangelog = `#!/bin/sh
echo "dpkg-parsechangelog $*" >> "$MOCK_LOG"
line=$(head -n 1 debian/changelog) || exit 2
case "$1" in
  -SSource) echo "${line%% *}" ;;
  -SVersion) echo "$line" | sed -e 's/^[^(]*(\([^)]*\)).*/\1/' ;;
  *) echo "unsupported field $1" >&2; exit 2 ;;
esac
`

// mockRules behaves like the kernel packaging rules: the control target
// exits 1 after doing its job.
const mockRules = `#!/bin/sh
echo "debian/rules $*" >> "$MOCK_LOG"
case "$1" in
  debian/control) exit 1 ;;
  orig) exit "${MOCK_ORIG_EXIT:-0}" ;;
  *) exit 2 ;;
esac
`

// E2EEnv provides an isolated environment for E2E testing.
// It manages PATH isolation and a kernel tree under a temp directory so that
// E2E tests never call the real apt-get or dpkg tools.
type E2EEnv struct {
	t         *testing.T
	tempDir   string
	binDir    string
	treeDir   string
	extraEnv  []string
	cleanedUp bool
}

// CommandResult captures the result of running a debbump command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// NewE2EEnv creates a new E2E test environment with PATH isolation.
func NewE2EEnv(t *testing.T) *E2EEnv {
	t.Helper()

	env := &E2EEnv{t: t}
	env.setup()
	t.Cleanup(env.Cleanup)

	return env
}

func (e *E2EEnv) setup() {
	e.t.Helper()

	tempDir, err := os.MkdirTemp("", "e2e-test-*")
	if err != nil {
		e.t.Fatalf("creating temp directory: %v", err)
	}
	e.tempDir = tempDir
	e.binDir = filepath.Join(tempDir, "bin")
	e.treeDir = filepath.Join(tempDir, "linux")

	for _, dir := range []string{e.binDir, filepath.Join(e.treeDir, TemplateDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.t.Fatalf("creating %s: %v", dir, err)
		}
	}

	e.writeExecutable(filepath.Join(e.binDir, "apt-get"), mockAptGet)
	e.writeExecutable(filepath.Join(e.binDir, "dpkg-parsechangelog"), mockParseChangelog)
	e.writeExecutable(filepath.Join(e.treeDir, TemplateDir, "rules"), mockRules)
	e.buildDebbump()
}

func (e *E2EEnv) writeExecutable(path, content string) {
	e.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		e.t.Fatalf("writing %s: %v", path, err)
	}
}

func (e *E2EEnv) buildDebbump() {
	e.t.Helper()

	// Build debbump binary once per test session
	debbumpBuildOnce.Do(func() {
		debbumpBinaryPath, debbumpBuildErr = doBuildDebbump()
	})

	if debbumpBuildErr != nil {
		e.t.Fatalf("building debbump: %v", debbumpBuildErr)
	}
}

func doBuildDebbump() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("determining current file location")
	}
	repoRoot := filepath.Join(filepath.Dir(currentFile), "..", "..")

	tmpDir, err := os.MkdirTemp("", "debbump-build-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir for build: %w", err)
	}

	binaryPath := filepath.Join(tmpDir, "debbump")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/debbump")
	cmd.Dir = repoRoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("building debbump: %w\nOutput: %s", err, output)
	}

	return binaryPath, nil
}

// Run executes a debbump command inside the kernel tree.
func (e *E2EEnv) Run(args ...string) CommandResult {
	e.t.Helper()

	start := time.Now()

	cmd := exec.Command(debbumpBinaryPath, args...)
	cmd.Dir = e.treeDir
	cmd.Env = e.buildIsolatedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
		}
	}

	return result
}

func (e *E2EEnv) buildIsolatedEnv() []string {
	// Mock bin dir first so the mocks shadow any real apt-get or dpkg tools.
	isolatedPath := e.binDir
	if systemPath := os.Getenv("PATH"); systemPath != "" {
		isolatedPath = e.binDir + string(os.PathListSeparator) + systemPath
	}

	env := []string{
		"PATH=" + isolatedPath,
		"HOME=" + e.tempDir,
		"XDG_CONFIG_HOME=" + filepath.Join(e.tempDir, ".config"),
		"MOCK_LOG=" + e.MockLogPath(),
		"NO_COLOR=1",
	}

	for _, key := range []string{"TERM", "LANG", "LC_ALL", "TMPDIR", "TMP", "TEMP"} {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}

	return append(env, e.extraEnv...)
}

// Setenv adds a variable to the environment of later Run calls.
func (e *E2EEnv) Setenv(key, value string) {
	e.extraEnv = append(e.extraEnv, key+"="+value)
}

// TreeDir returns the kernel tree debbump runs in.
func (e *E2EEnv) TreeDir() string {
	return e.treeDir
}

// MockLogPath returns the file the mock tools append their argv to.
func (e *E2EEnv) MockLogPath() string {
	return filepath.Join(e.tempDir, "mock.log")
}

// MockCalls returns the recorded mock tool invocations, in order.
func (e *E2EEnv) MockCalls() []string {
	data, err := os.ReadFile(e.MockLogPath())
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// WriteChangelog writes the template changelog.
func (e *E2EEnv) WriteChangelog(content string) {
	e.t.Helper()
	path := filepath.Join(e.treeDir, TemplateDir, "changelog")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("writing changelog: %v", err)
	}
}

// ReadChangelog returns the template changelog.
func (e *E2EEnv) ReadChangelog() string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.treeDir, TemplateDir, "changelog"))
	if err != nil {
		e.t.Fatalf("reading changelog: %v", err)
	}
	return string(data)
}

// Git runs git in the tree with a fixed identity and returns its output.
func (e *E2EEnv) Git(args ...string) string {
	e.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = e.treeDir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@test.com",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("git %s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// InitGitRepo initializes a git repository in the tree and commits its contents.
func (e *E2EEnv) InitGitRepo() {
	e.t.Helper()
	e.Git("init", "-q")
	e.Git("add", ".")
	e.Git("commit", "-q", "-m", "Initial commit")
}

// Commit creates an empty commit with subject.
func (e *E2EEnv) Commit(subject string) {
	e.t.Helper()
	e.Git("commit", "-q", "--allow-empty", "-m", subject)
}

// Tag creates a lightweight tag at HEAD.
func (e *E2EEnv) Tag(name string) {
	e.t.Helper()
	e.Git("tag", name)
}

// Cleanup removes temp files.
func (e *E2EEnv) Cleanup() {
	if e.cleanedUp {
		return
	}
	e.cleanedUp = true

	if e.tempDir != "" {
		if err := os.RemoveAll(e.tempDir); err != nil {
			e.t.Logf("note: could not remove temp directory: %v", err)
		}
	}
}

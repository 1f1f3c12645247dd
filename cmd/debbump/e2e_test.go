//go:build e2e

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/debbump/debbump/internal/cli"
	"github.com/debbump/debbump/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const previousEntry = `tempesta-fw (5.4.0-2) UNRELEASED; urgency=medium

  * Previous release.

 -- Old Maintainer <old@example.org>  Mon, 4 Mar 2024 10:00:00 +0000
`

// newTree builds a tree tagged v5.4.0 with commits A, B and C on top.
func newTree(t *testing.T) *testutil.E2EEnv {
	t.Helper()
	env := testutil.NewE2EEnv(t)
	env.WriteChangelog(previousEntry)
	env.InitGitRepo()
	env.Tag("v5.4.0")
	for _, subject := range []string{"A", "B", "C"} {
		env.Commit(subject)
	}
	return env
}

func TestE2E_Sync(t *testing.T) {
	env := newTree(t)

	result := env.Run("sync")
	require.Equal(t, cli.ExitSuccess, result.ExitCode, "stderr: %s", result.Stderr)
	assert.Contains(t, result.Stdout, "tempesta-fw 5.4.0-tfw3-2 (3 changes)")

	describe := env.Git("describe", "--tags")
	content := env.ReadChangelog()
	wantHead := "tempesta-fw (5.4.0-tfw3-2) UNRELEASED; urgency=medium\n\n" +
		"  * TempestaFW kernel " + describe + ":\n" +
		"    - A\n    - B\n    - C\n\n" +
		" -- Test <test@test.com>  "
	assert.True(t, strings.HasPrefix(content, wantHead), "changelog:\n%s", content)
	assert.True(t, strings.HasSuffix(content, "\n\n"+previousEntry))

	target, err := os.Readlink(filepath.Join(env.TreeDir(), "debian"))
	require.NoError(t, err)
	assert.Equal(t, testutil.TemplateDir, target)

	calls := env.MockCalls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "apt-get -y install kernel-wedge equivs", calls[0])
	assert.Equal(t, []string{"debian/rules debian/control", "debian/rules orig"}, calls[len(calls)-2:])
}

func TestE2E_Plan(t *testing.T) {
	env := newTree(t)
	require.NoError(t, os.Symlink(testutil.TemplateDir, filepath.Join(env.TreeDir(), "debian")))

	result := env.Run("plan", "--format", "json")
	require.Equal(t, cli.ExitSuccess, result.ExitCode, "stderr: %s", result.Stderr)

	var entry struct {
		Source  string   `json:"source"`
		Version string   `json:"version"`
		Changes []string `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Stdout), &entry))
	assert.Equal(t, "tempesta-fw", entry.Source)
	assert.Equal(t, "5.4.0-tfw3-2", entry.Version)
	assert.Equal(t, []string{"A", "B", "C"}, entry.Changes)
	assert.Equal(t, previousEntry, env.ReadChangelog())
}

func TestE2E_GoGitBackendMatchesGit(t *testing.T) {
	env := newTree(t)
	require.NoError(t, os.Symlink(testutil.TemplateDir, filepath.Join(env.TreeDir(), "debian")))
	env.Setenv("DEBBUMP_GIT__BACKEND", "gogit")
	env.Setenv("DEBBUMP_GIT__ABBREV", "10")
	env.Setenv("DEBBUMP_CHANGELOG__PARSER", "native")

	result := env.Run("plan", "--format", "yaml")
	require.Equal(t, cli.ExitSuccess, result.ExitCode, "stderr: %s", result.Stderr)
	assert.Contains(t, result.Stdout, "TempestaFW kernel "+env.Git("describe", "--tags", "--abbrev=10")+":")
	assert.Contains(t, result.Stdout, "version: 5.4.0-tfw3-2")
}

func TestE2E_ExitCodes(t *testing.T) {
	tests := map[string]struct {
		setup        func(env *testutil.E2EEnv)
		args         []string
		wantExitCode int
		wantStderr   string
	}{
		"not at repository root": {
			setup: func(env *testutil.E2EEnv) {
				require.NoError(t, os.Mkdir(filepath.Join(env.TreeDir(), "sub"), 0o755))
			},
			args:         []string{"-C", "sub", "sync"},
			wantExitCode: cli.ExitEnvironment,
			wantStderr:   "must be run from the repository root (missing .ci)",
		},
		"unknown flag": {
			args:         []string{"sync", "--frobnicate"},
			wantExitCode: cli.ExitInvalidArguments,
			wantStderr:   "unknown flag",
		},
		"unsupported plan format": {
			args:         []string{"plan", "--format", "xml"},
			wantExitCode: cli.ExitInvalidArguments,
			wantStderr:   "unsupported output format: xml",
		},
		"invalid config": {
			setup: func(env *testutil.E2EEnv) {
				env.Setenv("DEBBUMP_GIT__BACKEND", "svn")
			},
			args:         []string{"describe"},
			wantExitCode: cli.ExitInvalidArguments,
			wantStderr:   "git.backend",
		},
		"install fails": {
			setup: func(env *testutil.E2EEnv) {
				env.Setenv("MOCK_APT_EXIT", "100")
			},
			args:         []string{"sync"},
			wantExitCode: cli.ExitFailure,
			wantStderr:   "Install build dependencies",
		},
		"orig fails": {
			setup: func(env *testutil.E2EEnv) {
				env.Setenv("MOCK_ORIG_EXIT", "2")
			},
			args:         []string{"sync", "--skip-install"},
			wantExitCode: cli.ExitFailure,
			wantStderr:   "Prepare orig source",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTree(t)
			if tt.setup != nil {
				tt.setup(env)
			}

			result := env.Run(tt.args...)
			assert.Equal(t, tt.wantExitCode, result.ExitCode, "stderr: %s", result.Stderr)
			assert.Contains(t, result.Stderr, tt.wantStderr)
		})
	}
}

package health

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/debbump/debbump/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLookPath makes only the named programs resolvable.
func stubLookPath(t *testing.T, found ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(file string) (string, error) {
		for _, f := range found {
			if f == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
	t.Cleanup(func() { lookPath = orig })
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Marker:      "tempesta_fw",
		LinkName:    "debian",
		TemplateDir: ".ci/debian9/pkg/debian",
		Install:     config.InstallConfig{Command: "apt-get -y install"},
		Git:         config.GitConfig{Backend: config.BackendCLI},
		Changelog:   config.ChangelogConfig{Parser: config.ParserDpkg},
		Rules:       config.RulesConfig{Path: "debian/rules"},
	}
}

// newTree builds a kernel tree with marker, template changelog and rules.
func newTree(t *testing.T, rulesMode os.FileMode) string {
	t.Helper()
	root := t.TempDir()
	template := filepath.Join(root, ".ci", "debian9", "pkg", "debian")
	require.NoError(t, os.MkdirAll(template, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tempesta_fw"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(template, "changelog"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(template, "rules"), []byte("#!/bin/sh\n"), rulesMode))
	return root
}

func TestRunHealthChecks(t *testing.T) {
	stubLookPath(t, "git", "dpkg-parsechangelog", "apt-get")

	report := RunHealthChecks(testConfig(), newTree(t, 0o755))
	assert.True(t, report.Passed)

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	assert.Equal(t, []string{
		"Repository root", "Packaging template", "Rules file",
		"git", "dpkg-parsechangelog", "Install command",
	}, names)
}

func TestRunHealthChecks_MissingTool(t *testing.T) {
	stubLookPath(t, "git", "apt-get")

	report := RunHealthChecks(testConfig(), newTree(t, 0o755))
	assert.False(t, report.Passed)
	assert.Contains(t, FormatReport(report), "✗ dpkg-parsechangelog: dpkg-parsechangelog not found in PATH")
}

func TestRunHealthChecks_ConfigSkipsTools(t *testing.T) {
	stubLookPath(t)

	cfg := testConfig()
	cfg.Git.Backend = config.BackendGoGit
	cfg.Changelog.Parser = config.ParserNative
	cfg.Install.Skip = true

	report := RunHealthChecks(cfg, newTree(t, 0o755))
	assert.True(t, report.Passed)

	output := FormatReport(report)
	assert.Contains(t, output, "- git: not required with the gogit backend")
	assert.Contains(t, output, "- dpkg-parsechangelog: not required with the native parser")
	assert.Contains(t, output, "- Install command: install.skip is set")
}

func TestTreeChecks(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup   func(t *testing.T) string
		check   func(dir string, cfg *config.Configuration) CheckResult
		passed  bool
		message string
	}{
		"marker present": {
			setup:   func(t *testing.T) string { return newTree(t, 0o755) },
			check:   func(dir string, cfg *config.Configuration) CheckResult { return CheckRepositoryRoot(dir, cfg.Marker) },
			passed:  true,
			message: "tempesta_fw found",
		},
		"marker missing": {
			setup:   func(t *testing.T) string { return t.TempDir() },
			check:   func(dir string, cfg *config.Configuration) CheckResult { return CheckRepositoryRoot(dir, cfg.Marker) },
			message: "tempesta_fw not found in",
		},
		"template missing": {
			setup:   func(t *testing.T) string { return t.TempDir() },
			check:   func(dir string, cfg *config.Configuration) CheckResult { return CheckTemplate(dir, cfg.TemplateDir) },
			message: ".ci/debian9/pkg/debian is not a directory",
		},
		"template without changelog": {
			setup: func(t *testing.T) string {
				dir := newTree(t, 0o755)
				require.NoError(t, os.Remove(filepath.Join(dir, ".ci", "debian9", "pkg", "debian", "changelog")))
				return dir
			},
			check:   func(dir string, cfg *config.Configuration) CheckResult { return CheckTemplate(dir, cfg.TemplateDir) },
			message: "has no changelog",
		},
		"rules resolved through template": {
			setup:   func(t *testing.T) string { return newTree(t, 0o755) },
			check:   CheckRules,
			passed:  true,
			message: ".ci/debian9/pkg/debian/rules is executable",
		},
		"rules not executable": {
			setup:   func(t *testing.T) string { return newTree(t, 0o644) },
			check:   CheckRules,
			message: "is not executable",
		},
		"rules missing": {
			setup:   func(t *testing.T) string { return t.TempDir() },
			check:   CheckRules,
			message: "not found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := tt.check(tt.setup(t), testConfig())
			assert.Equal(t, tt.passed, result.Passed)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestCheckInstallCommand_Unparseable(t *testing.T) {
	t.Parallel()

	result := CheckInstallCommand(config.InstallConfig{Command: `apt-get "install`})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "cannot parse")
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	report := &HealthReport{
		Checks: []CheckResult{
			{Name: "git", Passed: true, Message: "found at /usr/bin/git"},
			{Name: "Rules file", Passed: false, Message: "debian/rules not found"},
			{Name: "Install command", Passed: true, Skipped: true, Message: "install.skip is set"},
		},
	}

	assert.Equal(t, "✓ git: found at /usr/bin/git\n"+
		"✗ Rules file: debian/rules not found\n"+
		"- Install command: install.skip is set\n", FormatReport(report))
}

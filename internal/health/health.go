// Package health provides preflight checks for debbump. It validates that the
// external tools a sync will run are on PATH and that the work dir looks like
// a kernel tree with a packaging template, returning structured reports used
// by the 'debbump doctor' command.
package health

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/debbump/debbump/internal/config"
	"github.com/google/shlex"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Skipped marks checks the configuration makes irrelevant. They count as passed.
	Skipped bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// RunHealthChecks runs all checks for the tree in dir under cfg.
func RunHealthChecks(cfg *config.Configuration, dir string) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 6),
		Passed: true,
	}

	checks := []CheckResult{
		CheckRepositoryRoot(dir, cfg.Marker),
		CheckTemplate(dir, cfg.TemplateDir),
		CheckRules(dir, cfg),
		CheckGit(cfg.Git.Backend),
		CheckParser(cfg.Changelog.Parser),
		CheckInstallCommand(cfg.Install),
	}
	for _, check := range checks {
		report.Checks = append(report.Checks, check)
		if !check.Passed {
			report.Passed = false
		}
	}

	return report
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		switch {
		case check.Skipped:
			fmt.Fprintf(&b, "- %s: %s\n", check.Name, check.Message)
		case check.Passed:
			fmt.Fprintf(&b, "✓ %s: %s\n", check.Name, check.Message)
		default:
			fmt.Fprintf(&b, "✗ %s: %s\n", check.Name, check.Message)
		}
	}
	return b.String()
}

// CheckRepositoryRoot checks that marker exists in dir.
func CheckRepositoryRoot(dir, marker string) CheckResult {
	if _, err := os.Lstat(filepath.Join(dir, marker)); err != nil {
		return CheckResult{
			Name:    "Repository root",
			Passed:  false,
			Message: fmt.Sprintf("%s not found in %s", marker, dir),
		}
	}
	return CheckResult{
		Name:    "Repository root",
		Passed:  true,
		Message: fmt.Sprintf("%s found", marker),
	}
}

// CheckTemplate checks that the packaging template is a directory holding a changelog.
func CheckTemplate(dir, templateDir string) CheckResult {
	path := filepath.Join(dir, templateDir)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return CheckResult{
			Name:    "Packaging template",
			Passed:  false,
			Message: fmt.Sprintf("%s is not a directory", templateDir),
		}
	}
	if _, err := os.Stat(filepath.Join(path, "changelog")); err != nil {
		return CheckResult{
			Name:    "Packaging template",
			Passed:  false,
			Message: fmt.Sprintf("%s has no changelog", templateDir),
		}
	}
	return CheckResult{
		Name:    "Packaging template",
		Passed:  true,
		Message: fmt.Sprintf("%s/changelog found", templateDir),
	}
}

// CheckRules checks that the rules file is executable. A rules path under the
// packaging link is resolved inside the template, since the link may not exist yet.
func CheckRules(dir string, cfg *config.Configuration) CheckResult {
	rel := cfg.Rules.Path
	if rest, ok := strings.CutPrefix(rel, cfg.LinkName+"/"); ok {
		rel = filepath.Join(cfg.TemplateDir, rest)
	}

	info, err := os.Stat(filepath.Join(dir, rel))
	if err != nil {
		return CheckResult{
			Name:    "Rules file",
			Passed:  false,
			Message: fmt.Sprintf("%s not found", rel),
		}
	}
	if info.Mode()&0o111 == 0 {
		return CheckResult{
			Name:    "Rules file",
			Passed:  false,
			Message: fmt.Sprintf("%s is not executable", rel),
		}
	}
	return CheckResult{
		Name:    "Rules file",
		Passed:  true,
		Message: fmt.Sprintf("%s is executable", rel),
	}
}

// CheckGit checks for the git binary when the cli backend is selected.
func CheckGit(backend string) CheckResult {
	if backend == config.BackendGoGit {
		return skipped("git", "not required with the gogit backend")
	}
	return checkTool("git", "git")
}

// CheckParser checks for dpkg-parsechangelog when the dpkg parser is selected.
func CheckParser(parser string) CheckResult {
	if parser == config.ParserNative {
		return skipped("dpkg-parsechangelog", "not required with the native parser")
	}
	return checkTool("dpkg-parsechangelog", "dpkg-parsechangelog")
}

// CheckInstallCommand checks that the program of the install command is on PATH.
func CheckInstallCommand(install config.InstallConfig) CheckResult {
	if install.Skip {
		return skipped("Install command", "install.skip is set")
	}
	argv, err := shlex.Split(install.Command)
	if err != nil || len(argv) == 0 {
		return CheckResult{
			Name:    "Install command",
			Passed:  false,
			Message: fmt.Sprintf("cannot parse %q", install.Command),
		}
	}
	return checkTool("Install command", argv[0])
}

func checkTool(name, program string) CheckResult {
	path, err := lookPath(program)
	if err != nil {
		return CheckResult{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s not found in PATH", program),
		}
	}
	return CheckResult{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

func skipped(name, reason string) CheckResult {
	return CheckResult{Name: name, Passed: true, Skipped: true, Message: reason}
}

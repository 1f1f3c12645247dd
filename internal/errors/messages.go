package errors

import "fmt"

// Common error messages for the debbump CLI.
// These templates ensure consistent, actionable error messages.

// NotRepositoryRoot creates an error for running outside the source tree root.
func NotRepositoryRoot(marker string) *CLIError {
	return NewEnvironmentError(
		fmt.Sprintf("this command must be run from the repository root (missing %s)", marker),
		"cd to the top of the kernel source tree",
		"Or pass the tree explicitly: debbump -C <path>",
	)
}

// MissingTool creates an error for an external program that is not installed.
func MissingTool(name string, err error) *CLIError {
	return &CLIError{
		Category: Environment,
		Message:  fmt.Sprintf("%s: command not found", name),
		Remediation: []string{
			fmt.Sprintf("Install %s and make sure it is on PATH", name),
		},
		Err: err,
	}
}

// NoMaintainer creates an error for an empty commit range with no fallback identity.
func NoMaintainer(tag string) *CLIError {
	return New(Parse,
		fmt.Sprintf("no commits since %s and no maintainer configured", tag),
		"Set maintainer.name and maintainer.email in .debbump.yml",
		"Or export DEBFULLNAME and DEBEMAIL",
	)
}

// InvalidFormat creates an error for an unsupported --format value.
func InvalidFormat(provided string, valid ...string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unsupported output format: %s", provided),
		"debbump plan --format <format>",
		fmt.Sprintf("Valid formats: %v", valid),
	)
}

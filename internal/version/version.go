// Package version parses the two version identifiers debbump reconciles:
// the git describe output of the kernel source tree and the Debian package
// version at the top of the packaging changelog.
//
// Both parsers return structured values or a *ParseError; callers never see
// raw regular expression match groups.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	describePattern   = regexp.MustCompile(`^v(\d+\.\d+\.\d+)-(\d+)-g([0-9a-fA-F]+)$`)
	pkgVersionPattern = regexp.MustCompile(`^(\d+\.\d+\.\d+)-(.+)$`)
)

// ParseError reports an identifier that does not have the expected shape.
type ParseError struct {
	// Kind names what was being parsed (e.g. "git describe").
	Kind string
	// Input is the offending value.
	Input string
	// Expected describes the accepted form.
	Expected string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s %q: expected %s", e.Kind, e.Input, e.Expected)
}

// TagDescriptor is the parsed form of `git describe --tags` output.
type TagDescriptor struct {
	// Upstream is the release version without the leading "v" (e.g. "5.4.0").
	Upstream string `json:"upstream" yaml:"upstream"`
	// RevCount is the number of commits on top of the tag.
	RevCount int `json:"rev_count" yaml:"rev_count"`
	// RevID is the abbreviated object name of HEAD.
	RevID string `json:"rev_id" yaml:"rev_id"`
}

// Tag returns the git tag name the descriptor is relative to.
func (d TagDescriptor) Tag() string {
	return "v" + d.Upstream
}

// String renders the descriptor the way git describe prints it.
func (d TagDescriptor) String() string {
	return fmt.Sprintf("v%s-%d-g%s", d.Upstream, d.RevCount, d.RevID)
}

// ParseDescribe parses output of the form v<major>.<minor>.<patch>-<count>-g<hash>.
// Surrounding whitespace is ignored; anything else must match exactly.
func ParseDescribe(s string) (TagDescriptor, error) {
	m := describePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TagDescriptor{}, &ParseError{
			Kind:     "git describe",
			Input:    s,
			Expected: "v<major>.<minor>.<patch>-<count>-g<hash>",
		}
	}

	count, err := strconv.Atoi(m[2])
	if err != nil {
		// Only reachable when the count overflows int.
		return TagDescriptor{}, &ParseError{
			Kind:     "git describe",
			Input:    s,
			Expected: "a commit count that fits in an int",
		}
	}

	return TagDescriptor{Upstream: m[1], RevCount: count, RevID: m[3]}, nil
}

// PackageVersion is the parsed form of a Debian package version.
type PackageVersion struct {
	// Upstream is the upstream part (e.g. "5.4.0").
	Upstream string `json:"upstream" yaml:"upstream"`
	// Revision is everything after the first hyphen following the upstream part.
	Revision string `json:"revision" yaml:"revision"`
}

func (v PackageVersion) String() string {
	return v.Upstream + "-" + v.Revision
}

// ParsePackageVersion parses a version of the form <major>.<minor>.<patch>-<revision>.
func ParsePackageVersion(s string) (PackageVersion, error) {
	m := pkgVersionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return PackageVersion{}, &ParseError{
			Kind:     "package version",
			Input:    s,
			Expected: "<major>.<minor>.<patch>-<revision>",
		}
	}
	return PackageVersion{Upstream: m[1], Revision: m[2]}, nil
}

// Synthesize builds the package version for a tree described by tag, keeping
// the packaging revision of pkg. The upstream component always comes from the
// tag; pkg.Upstream is deliberately ignored.
func Synthesize(tag TagDescriptor, pkg PackageVersion, flavour string) string {
	return fmt.Sprintf("%s-%s%d-%s", tag.Upstream, flavour, tag.RevCount, pkg.Revision)
}

// Package git reads the two facts debbump needs from the kernel source
// repository: the describe string of HEAD and the commits since a release
// tag. Two backends exist: CLIRepository shells out to the git binary, and
// GoGitRepository uses the go-git library so no git installation is needed.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/debbump/debbump/internal/version"
)

// FieldSeparator separates fields of one log record. The ASCII unit
// separator cannot appear in commit subjects or identities.
const FieldSeparator = "\x1f"

// LogFormat is the --pretty format understood by ParseLogLine.
var LogFormat = "tformat:" + strings.Join([]string{"%h", "%s", "%cn", "%ce", "%cD"}, FieldSeparator)

// RFC2822 is the layout git uses for %cD and Debian uses in changelog trailers.
const RFC2822 = "Mon, 2 Jan 2006 15:04:05 -0700"

// Commit is one commit of the range being packaged.
type Commit struct {
	Hash           string `json:"hash" yaml:"hash"`
	Subject        string `json:"subject" yaml:"subject"`
	CommitterName  string `json:"committer_name" yaml:"committer_name"`
	CommitterEmail string `json:"committer_email" yaml:"committer_email"`
	// CommitterDate is RFC-2822 formatted, exactly as git prints %cD.
	CommitterDate string `json:"committer_date" yaml:"committer_date"`
}

// Repository is the read-only view of the source tree debbump needs.
type Repository interface {
	// Describe returns `git describe --tags` output for HEAD.
	Describe(ctx context.Context) (string, error)
	// Log returns the commits in since..HEAD, newest first.
	Log(ctx context.Context, since string) ([]Commit, error)
}

// ParseLogLine parses one record produced with LogFormat.
func ParseLogLine(line string) (Commit, error) {
	fields := strings.Split(line, FieldSeparator)
	if len(fields) != 5 {
		return Commit{}, &version.ParseError{
			Kind:     "git log record",
			Input:    line,
			Expected: fmt.Sprintf("5 fields separated by %q, got %d", FieldSeparator, len(fields)),
		}
	}
	return Commit{
		Hash:           fields[0],
		Subject:        fields[1],
		CommitterName:  fields[2],
		CommitterEmail: fields[3],
		CommitterDate:  fields[4],
	}, nil
}

// OldestFirst returns a reversed copy of commits as returned by Log.
func OldestFirst(commits []Commit) []Commit {
	out := make([]Commit, len(commits))
	for i, c := range commits {
		out[len(commits)-1-i] = c
	}
	return out
}

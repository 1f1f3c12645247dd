package git

import (
	"context"
	"fmt"

	"github.com/debbump/debbump/internal/shell"
)

// CLIRepository runs the git binary through a shell.Runner whose working
// directory is the repository.
type CLIRepository struct {
	Runner shell.Runner
}

var _ Repository = (*CLIRepository)(nil)

// NewCLIRepository returns a CLIRepository using runner.
func NewCLIRepository(runner shell.Runner) *CLIRepository {
	return &CLIRepository{Runner: runner}
}

// Describe implements Repository.
func (r *CLIRepository) Describe(ctx context.Context) (string, error) {
	out, err := r.Runner.Output(ctx, "git", "describe", "--tags")
	if err != nil {
		return "", fmt.Errorf("describing HEAD: %w", err)
	}
	return out, nil
}

// Log implements Repository. The output is streamed record by record and
// fully materialized before returning.
func (r *CLIRepository) Log(ctx context.Context, since string) ([]Commit, error) {
	var commits []Commit
	err := r.Runner.Lines(ctx, func(line string) error {
		c, err := ParseLogLine(line)
		if err != nil {
			return err
		}
		commits = append(commits, c)
		return nil
	}, "git", "log", since+"..", "--pretty="+LogFormat)
	if err != nil {
		return nil, fmt.Errorf("reading commits since %s: %w", since, err)
	}
	return commits, nil
}

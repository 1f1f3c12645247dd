package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// maxCandidates matches the default of git describe --candidates.
const maxCandidates = 10

// DefaultAbbrev is the abbreviated object name length used by GoGitRepository.
const DefaultAbbrev = 12

// ErrNoTags is returned by Describe when no tag is reachable from HEAD.
var ErrNoTags = errors.New("no names found, cannot describe anything")

// GoGitRepository implements Repository with go-git.
type GoGitRepository struct {
	// Path is any directory inside the work tree; empty means the current directory.
	Path string
	// Abbrev is the length of abbreviated hashes; 0 means DefaultAbbrev.
	Abbrev int
	Logger *zap.Logger
}

var _ Repository = (*GoGitRepository)(nil)

// openRepo opens a git repository at the specified path or current working directory.
// DetectDotGit lets it find the repository root from a subdirectory.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

func (r *GoGitRepository) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *GoGitRepository) abbrev(h plumbing.Hash) string {
	n := r.Abbrev
	if n <= 0 {
		n = DefaultAbbrev
	}
	s := h.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Describe implements Repository following git describe --tags: any tag name
// qualifies, and among the tagged commits met walking back from HEAD the one
// with the fewest commits in tag..HEAD wins. An exactly tagged HEAD yields
// the bare tag name.
func (r *GoGitRepository) Describe(ctx context.Context) (string, error) {
	repo, err := openRepo(r.Path)
	if err != nil {
		return "", err
	}

	head, err := headCommit(repo)
	if err != nil {
		return "", err
	}

	tags, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}

	res, err := nearestTag(ctx, head, tags)
	if err != nil {
		return "", err
	}

	r.log().Debug("described HEAD", zap.String("tag", res.Name), zap.Int("depth", res.Depth),
		zap.Int("walked", res.Walked))
	if res.Depth == 0 {
		return res.Name, nil
	}
	return fmt.Sprintf("%s-%d-g%s", res.Name, res.Depth, r.abbrev(head.Hash)), nil
}

// Log implements Repository. Commits are ordered by committer date, newest
// first, like git log's default output for a linear history.
func (r *GoGitRepository) Log(ctx context.Context, since string) ([]Commit, error) {
	repo, err := openRepo(r.Path)
	if err != nil {
		return nil, err
	}

	head, err := headCommit(repo)
	if err != nil {
		return nil, err
	}

	ref, err := repo.Tag(since)
	if err != nil {
		return nil, fmt.Errorf("resolving tag %s: %w", since, err)
	}
	base, err := peelToCommit(repo, ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolving tag %s: %w", since, err)
	}

	objs, walked, err := rangeCommits(ctx, base, head)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].Committer.When.After(objs[j].Committer.When)
	})

	commits := make([]Commit, len(objs))
	for i, c := range objs {
		commits[i] = Commit{
			Hash:           r.abbrev(c.Hash),
			Subject:        subject(c.Message),
			CommitterName:  c.Committer.Name,
			CommitterEmail: c.Committer.Email,
			CommitterDate:  c.Committer.When.Format(RFC2822),
		}
	}

	r.log().Debug("read commit range", zap.String("since", since), zap.Int("commits", len(commits)),
		zap.Int("walked", walked))
	return commits, nil
}

func headCommit(repo *git.Repository) (*object.Commit, error) {
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD reference: %w", err)
	}
	c, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading HEAD commit: %w", err)
	}
	return c, nil
}

// tagsByCommit maps peeled commit hashes to the names of tags pointing at
// them. Names are sorted so the choice among several tags is stable.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	tags := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		c, err := peelToCommit(repo, ref.Hash())
		if err != nil {
			// Tags of trees or blobs cannot describe a commit.
			return nil
		}
		tags[c.Hash] = append(tags[c.Hash], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	for _, names := range tags {
		sort.Strings(names)
	}
	return tags, nil
}

// peelToCommit resolves an annotated or lightweight tag target to a commit.
func peelToCommit(repo *git.Repository, h plumbing.Hash) (*object.Commit, error) {
	tag, err := repo.TagObject(h)
	switch {
	case err == nil:
		return tag.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return repo.CommitObject(h)
	default:
		return nil, err
	}
}

// subject mirrors git's %s: the first paragraph of the message on one line.
func subject(message string) string {
	para, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n\n")
	lines := strings.Split(strings.TrimSpace(para), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, " ")
}

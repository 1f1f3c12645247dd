package bump

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/debbump/debbump/internal/changelog"
	"github.com/debbump/debbump/internal/config"
	"github.com/debbump/debbump/internal/debian"
	clierrors "github.com/debbump/debbump/internal/errors"
	"github.com/debbump/debbump/internal/git"
	"github.com/debbump/debbump/internal/shell"
	"github.com/debbump/debbump/internal/version"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Step names, as shown by progress output and error messages.
const (
	StepCheckRoot = "Check repository root"
	StepLink      = "Link packaging template"
	StepInstall   = "Install build dependencies"
	StepDescribe  = "Read version descriptors"
	StepLog       = "Collect commits"
	StepWrite     = "Write changelog entry"
	StepControl   = "Generate debian/control"
	StepOrig      = "Prepare orig source"
)

// Deps are the collaborators of a Synchronizer.
type Deps struct {
	Tree      *debian.Tree
	Repo      git.Repository
	Parser    debian.Parser
	Rules     *debian.Rules
	Installer *debian.Installer
	Logger    *zap.Logger
	// Progress may be nil.
	Progress Progress
	// Now defaults to time.Now; used for the fallback trailer date.
	Now func() time.Time
}

// NewDeps wires the default collaborators for the tree at dir. All external
// programs run through runner, whose working directory must be dir.
func NewDeps(cfg *config.Configuration, dir string, runner shell.Runner, logger *zap.Logger) Deps {
	tree := &debian.Tree{Root: dir, LinkName: cfg.LinkName, TemplateDir: cfg.TemplateDir}

	var repo git.Repository = git.NewCLIRepository(runner)
	if cfg.Git.Backend == config.BackendGoGit {
		repo = &git.GoGitRepository{Path: dir, Abbrev: cfg.Git.Abbrev, Logger: logger}
	}

	var parser debian.Parser = &debian.DpkgParser{Runner: runner}
	if cfg.Changelog.Parser == config.ParserNative {
		parser = &debian.NativeParser{Path: tree.ChangelogPath()}
	}

	return Deps{
		Tree:   tree,
		Repo:   repo,
		Parser: parser,
		Rules: &debian.Rules{
			Runner:        runner,
			Path:          cfg.Rules.Path,
			ControlTarget: cfg.Rules.ControlTarget,
			OrigTarget:    cfg.Rules.OrigTarget,
			Logger:        logger,
		},
		Installer: &debian.Installer{Runner: runner, Command: cfg.Install.Command},
		Logger:    logger,
	}
}

// Descriptors are the three facts a run combines.
type Descriptors struct {
	// Describe is the raw `git describe --tags` output.
	Describe string                 `json:"describe" yaml:"describe"`
	Tag      version.TagDescriptor  `json:"tag" yaml:"tag"`
	Package  version.PackageVersion `json:"package" yaml:"package"`
	Source   string                 `json:"source" yaml:"source"`
}

// Synchronizer bumps a packaging tree to the latest release tag.
type Synchronizer struct {
	cfg  *config.Configuration
	deps Deps
	log  *zap.Logger
	prog stepTracker
	now  func() time.Time
}

// New creates a Synchronizer.
func New(cfg *config.Configuration, deps Deps) *Synchronizer {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Synchronizer{
		cfg:  cfg,
		deps: deps,
		log:  log,
		prog: stepTracker{p: deps.Progress},
		now:  now,
	}
}

// RunOptions modify a single Run.
type RunOptions struct {
	// SkipInstall skips step 3 in addition to install.skip.
	SkipInstall bool
	// DryRun stops after the root check and returns the planned entry.
	DryRun bool
}

// Run executes the synchronization and returns the entry it prepended.
// Errors are *errors.CLIError values.
func (s *Synchronizer) Run(ctx context.Context, opts RunOptions) (*changelog.Entry, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	if err := s.step(StepCheckRoot, clierrors.Environment, func() error {
		return s.checkRoot()
	}); err != nil {
		return nil, err
	}

	if opts.DryRun {
		return s.plan(ctx)
	}

	if err := s.step(StepLink, clierrors.Filesystem, s.deps.Tree.LinkTemplate); err != nil {
		return nil, err
	}

	if opts.SkipInstall || s.cfg.Install.Skip {
		s.prog.skip(StepInstall, "install disabled")
		s.log.Info("skipping build dependency installation")
	} else if err := s.step(StepInstall, clierrors.ExternalTool, func() error {
		return s.deps.Installer.Install(ctx, s.cfg.Install.Packages...)
	}); err != nil {
		return nil, err
	}

	entry, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.step(StepWrite, clierrors.Filesystem, func() error {
		return changelog.Prepend(s.deps.Tree.ChangelogPath(), entry)
	}); err != nil {
		return nil, err
	}
	s.log.Info("changelog updated",
		zap.String("version", entry.Version), zap.Int("changes", len(entry.Changes)))

	if err := s.step(StepControl, clierrors.ExternalTool, func() error {
		return s.deps.Rules.Control(ctx)
	}); err != nil {
		return nil, err
	}

	if err := s.step(StepOrig, clierrors.ExternalTool, func() error {
		return s.deps.Rules.Orig(ctx)
	}); err != nil {
		return nil, err
	}

	return entry, nil
}

// Plan reads the descriptors and commits and returns the entry a Run would
// prepend. Nothing is modified.
func (s *Synchronizer) Plan(ctx context.Context) (*changelog.Entry, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.plan(ctx)
}

// Describe reads the tag descriptor, package version and source name.
func (s *Synchronizer) Describe(ctx context.Context) (*Descriptors, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.describeStep(ctx)
}

func (s *Synchronizer) describeStep(ctx context.Context) (*Descriptors, error) {
	var d *Descriptors
	err := s.step(StepDescribe, clierrors.ExternalTool, func() error {
		var err error
		d, err = s.describe(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Synchronizer) plan(ctx context.Context) (*changelog.Entry, error) {
	d, err := s.describeStep(ctx)
	if err != nil {
		return nil, err
	}

	var commits []git.Commit
	if err := s.step(StepLog, clierrors.ExternalTool, func() error {
		newest, err := s.deps.Repo.Log(ctx, d.Tag.Tag())
		commits = git.OldestFirst(newest)
		return err
	}); err != nil {
		return nil, err
	}

	entry := &changelog.Entry{
		Source:       d.Source,
		Version:      version.Synthesize(d.Tag, d.Package, s.cfg.Flavour),
		Distribution: s.cfg.Distribution,
		Urgency:      s.cfg.Urgency,
		Summary:      s.summary(d.Tag),
	}
	for _, c := range commits {
		entry.Changes = append(entry.Changes, c.Subject)
	}

	if n := len(commits); n > 0 {
		newest := commits[n-1]
		entry.Maintainer = changelog.Identity{Name: newest.CommitterName, Email: newest.CommitterEmail}
		entry.Date = newest.CommitterDate
	} else {
		m := s.cfg.Maintainer
		if m.Name == "" || m.Email == "" {
			return nil, clierrors.NoMaintainer(d.Tag.Tag())
		}
		s.log.Info("no commits since tag, using configured maintainer", zap.String("tag", d.Tag.Tag()))
		entry.Maintainer = changelog.Identity{Name: m.Name, Email: m.Email}
		entry.Date = s.now().Format(git.RFC2822)
	}

	s.log.Debug("planned changelog entry",
		zap.String("source", entry.Source),
		zap.String("version", entry.Version),
		zap.Int("changes", len(entry.Changes)))
	return entry, nil
}

// describe runs the three read-only queries concurrently. The first failure
// cancels the others.
func (s *Synchronizer) describe(ctx context.Context) (*Descriptors, error) {
	var d Descriptors
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := s.deps.Repo.Describe(gctx)
		if err != nil {
			return err
		}
		d.Describe = out
		d.Tag, err = version.ParseDescribe(out)
		return err
	})
	g.Go(func() error {
		out, err := s.deps.Parser.Version(gctx)
		if err != nil {
			return err
		}
		d.Package, err = version.ParsePackageVersion(out)
		return err
	})
	g.Go(func() error {
		out, err := s.deps.Parser.Source(gctx)
		if err != nil {
			return err
		}
		if out == "" {
			return &version.ParseError{Kind: "source package name", Input: out, Expected: "a non-empty name"}
		}
		d.Source = out
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info("read descriptors",
		zap.String("tag", d.Tag.String()),
		zap.String("package_version", d.Package.String()),
		zap.String("source", d.Source))
	return &d, nil
}

func (s *Synchronizer) summary(tag version.TagDescriptor) string {
	if s.cfg.SummaryPrefix == "" {
		return tag.String() + ":"
	}
	return fmt.Sprintf("%s %s:", s.cfg.SummaryPrefix, tag.String())
}

func (s *Synchronizer) checkRoot() error {
	err := s.deps.Tree.CheckRoot(s.cfg.Marker)
	if errors.Is(err, fs.ErrNotExist) {
		return clierrors.NotRepositoryRoot(s.cfg.Marker)
	}
	return err
}

// step runs fn as one named step, reporting progress and converting its error.
func (s *Synchronizer) step(name string, fallback clierrors.ErrorCategory, fn func() error) error {
	s.prog.start(name)
	s.log.Info("step started", zap.String("step", name))
	start := time.Now()

	err := fn()
	s.prog.finish(err)
	if err != nil {
		s.log.Error("step failed", zap.String("step", name), zap.Error(err))
		return s.classify(err, name, fallback)
	}
	s.log.Debug("step finished", zap.String("step", name), zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Synchronizer) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := s.cfg.TimeoutDuration(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

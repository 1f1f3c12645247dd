package debian

import (
	"context"
	"fmt"

	"github.com/debbump/debbump/internal/changelog"
	"github.com/debbump/debbump/internal/shell"
)

// Parser answers questions about the top changelog entry.
type Parser interface {
	// Version returns the package version of the newest entry.
	Version(ctx context.Context) (string, error)
	// Source returns the source package name.
	Source(ctx context.Context) (string, error)
}

// DpkgParser asks dpkg-parsechangelog, run in the tree root.
type DpkgParser struct {
	Runner shell.Runner
}

var _ Parser = (*DpkgParser)(nil)

// Version implements Parser.
func (p *DpkgParser) Version(ctx context.Context) (string, error) {
	return p.field(ctx, "Version")
}

// Source implements Parser.
func (p *DpkgParser) Source(ctx context.Context) (string, error) {
	return p.field(ctx, "Source")
}

func (p *DpkgParser) field(ctx context.Context, name string) (string, error) {
	out, err := p.Runner.Output(ctx, "dpkg-parsechangelog", "-S"+name)
	if err != nil {
		return "", fmt.Errorf("querying changelog %s: %w", name, err)
	}
	return out, nil
}

// NativeParser reads the changelog header directly, for hosts without dpkg-dev.
type NativeParser struct {
	Path string
}

var _ Parser = (*NativeParser)(nil)

// Version implements Parser.
func (p *NativeParser) Version(ctx context.Context) (string, error) {
	h, err := p.header(ctx)
	return h.Version, err
}

// Source implements Parser.
func (p *NativeParser) Source(ctx context.Context) (string, error) {
	h, err := p.header(ctx)
	return h.Source, err
}

func (p *NativeParser) header(ctx context.Context) (changelog.Header, error) {
	if err := ctx.Err(); err != nil {
		return changelog.Header{}, err
	}
	h, err := changelog.ReadHeaderFile(p.Path)
	if err != nil {
		return changelog.Header{}, fmt.Errorf("parsing %s: %w", p.Path, err)
	}
	return h, nil
}

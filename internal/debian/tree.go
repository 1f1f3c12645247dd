// Package debian drives the Debian packaging side of a kernel tree: the
// `debian` link to the packaging template, changelog metadata queries,
// debian/rules targets and build dependency installation.
package debian

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Tree is a kernel source tree with a packaging template.
type Tree struct {
	// Root is the repository root.
	Root string
	// LinkName is the packaging directory the Debian tools expect ("debian").
	LinkName string
	// TemplateDir is the link target, relative to Root.
	TemplateDir string
}

// Path joins rel onto the tree root.
func (t *Tree) Path(rel ...string) string {
	return filepath.Join(append([]string{t.Root}, rel...)...)
}

// ChangelogPath returns the changelog reached through the packaging link.
func (t *Tree) ChangelogPath() string {
	return t.Path(t.LinkName, "changelog")
}

// CheckRoot returns an error wrapping fs.ErrNotExist if marker is missing
// from the tree root.
func (t *Tree) CheckRoot(marker string) error {
	if _, err := os.Lstat(t.Path(marker)); err != nil {
		return fmt.Errorf("checking for %s: %w", marker, err)
	}
	return nil
}

// LinkTemplate replaces whatever is at LinkName with a symlink to TemplateDir.
func (t *Tree) LinkTemplate() error {
	link := t.Path(t.LinkName)
	if err := RemoveForce(link); err != nil {
		return err
	}
	if err := os.Symlink(t.TemplateDir, link); err != nil {
		return fmt.Errorf("linking %s to %s: %w", t.LinkName, t.TemplateDir, err)
	}
	return nil
}

// RemoveForce removes path whatever it is. A missing path is not an error;
// symlinks are unlinked without touching their target, and a real directory
// is removed with its contents. Any other failure is returned.
func RemoveForce(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

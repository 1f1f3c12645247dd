package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// NewSuffix is appended to the changelog path for the file built before the rename.
const NewSuffix = "-new"

// Prepend writes e followed by the current contents of the changelog at path
// into path+NewSuffix, then renames it over path. The original file is left
// untouched if anything before the rename fails.
func Prepend(path string, e *Entry) (err error) {
	entry, err := RenderString(e)
	if err != nil {
		return fmt.Errorf("rendering entry: %w", err)
	}

	old, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening changelog: %w", err)
	}
	defer old.Close()

	info, err := old.Stat()
	if err != nil {
		return fmt.Errorf("reading changelog: %w", err)
	}

	tmpPath := path + NewSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err = io.WriteString(w, entry); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	// Entries are separated by one blank line; a new changelog gets none.
	if info.Size() > 0 {
		if err = w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing %s: %w", tmpPath, err)
		}
	}
	if _, err = io.Copy(w, old); err != nil {
		return fmt.Errorf("copying previous entries: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing changelog: %w", err)
	}
	return nil
}

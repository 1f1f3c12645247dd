package changelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const previousEntries = "tempesta-fw (5.4.0-2) unstable; urgency=medium\n" +
	"\n" +
	"  * Rebuild.\n" +
	"\n" +
	" -- Old Maintainer <old@example.com>  Mon, 1 Jan 2024 10:00:00 +0000\n"

func TestPrepend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changelog")
	require.NoError(t, os.WriteFile(path, []byte(previousEntries), 0o640))

	require.NoError(t, Prepend(path, sampleEntry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	entry, err := RenderString(sampleEntry())
	require.NoError(t, err)
	assert.Equal(t, entry+"\n"+previousEntries, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm(), "permissions are preserved")

	_, err = os.Stat(path + NewSuffix)
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")
}

func TestPrepend_EmptyChangelog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changelog")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, Prepend(path, sampleEntry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entry, _ := RenderString(sampleEntry())
	assert.Equal(t, entry, string(data))
}

func TestPrepend_InvalidEntryLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changelog")
	require.NoError(t, os.WriteFile(path, []byte(previousEntries), 0o644))

	e := sampleEntry()
	e.Source = ""
	err := Prepend(path, e)
	assert.True(t, IsValidationError(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, previousEntries, string(data))
	_, err = os.Stat(path + NewSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestPrepend_MissingChangelog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changelog")
	err := Prepend(path, sampleEntry())
	assert.ErrorContains(t, err, "opening changelog")
	_, statErr := os.Stat(path + NewSuffix)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPrepend_ThroughDirectorySymlink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	template := filepath.Join(root, ".ci", "debian9", "pkg", "debian")
	require.NoError(t, os.MkdirAll(template, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(template, "changelog"), []byte(previousEntries), 0o644))
	require.NoError(t, os.Symlink(template, filepath.Join(root, "debian")))

	require.NoError(t, Prepend(filepath.Join(root, "debian", "changelog"), sampleEntry()))

	data, err := os.ReadFile(filepath.Join(template, "changelog"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tempesta-fw (5.4.0-tfw3-2) UNRELEASED; urgency=medium")
	assert.Contains(t, string(data), previousEntries)
}

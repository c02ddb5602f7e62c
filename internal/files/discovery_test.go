package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0644))
}

func TestDiscovery_FindWorkbooks(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "TrendExport-BLD02_2024-04.xlsx")
	touch(t, dir, "TrendExport-BLD01_2024-03.xlsx")
	touch(t, dir, "~$TrendExport-BLD01_2024-03.xlsx") // Office lock file
	touch(t, dir, "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	d := NewDiscovery(dir)
	files, err := d.FindWorkbooks(".")
	require.NoError(t, err)

	require.Len(t, files, 2)
	// Lexicographic order, lock file and non-workbooks excluded
	assert.Equal(t, "TrendExport-BLD01_2024-03.xlsx", files[0].Name)
	assert.Equal(t, "TrendExport-BLD02_2024-04.xlsx", files[1].Name)
	assert.Equal(t, filepath.Join(dir, files[0].Name), files[0].Path)
}

func TestDiscovery_FindWorkbooks_MissingDir(t *testing.T) {
	d := NewDiscovery(t.TempDir())
	_, err := d.FindWorkbooks("does-not-exist")
	assert.Error(t, err)
}

func TestDiscovery_FindWorkbooksMatching(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "TrendExport-BLD01_2024-03.xlsx")
	touch(t, dir, "Schedule-BLD01.xlsx")

	d := NewDiscovery(dir)

	matched, err := d.FindWorkbooksMatching(".", "TrendExport")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "TrendExport-BLD01_2024-03.xlsx", matched[0].Name)

	all, err := d.FindWorkbooksMatching(".", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDiscovery_Deterministic(t *testing.T) {
	dir := t.TempDir()
	names := []string{"c.xlsx", "a.xlsx", "b.xlsx"}
	for _, n := range names {
		touch(t, dir, n)
	}

	d := NewDiscovery(dir)
	first, err := d.FindWorkbooks(".")
	require.NoError(t, err)
	second, err := d.FindWorkbooks(".")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

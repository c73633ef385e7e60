package search

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedFile(t *testing.T) {
	supported := []string{
		"notes.txt", "report.docx", "scan.pdf", "sheet.xlsx",
		"legacy.xls", "page.html", "old.htm", "index.php",
		"UPPER.TXT", "Mixed.PdF",
	}
	for _, name := range supported {
		assert.True(t, IsSupportedFile(name), name)
	}

	unsupported := []string{"app.log", "main.go", "data.csv", "noext", "archive.txt.gz"}
	for _, name := range unsupported {
		assert.False(t, IsSupportedFile(name), name)
	}
}

func TestEnumerateFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755))

	mk := func(rel string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte("x"), 0o644))
	}
	mk("b.txt")
	mk("a.pdf")
	mk("skip.log")
	mk(filepath.Join("sub", "c.docx"))
	mk(filepath.Join("sub", "deep", "d.HTML"))

	files := Enumerate(dir)
	require.Len(t, files, 4)

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		names = append(names, rel)
	}
	assert.True(t, sort.StringsAreSorted(names), "walk order should be lexical: %v", names)
	assert.Contains(t, names, filepath.Join("sub", "deep", "d.HTML"))
	assert.NotContains(t, names, "skip.log")
}

func TestEnumerateMissingRoot(t *testing.T) {
	files := Enumerate(filepath.Join(t.TempDir(), "absent"))
	assert.Empty(t, files)
}

func TestEnumerateFollowsSymlinkedFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	dangling := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.Symlink(filepath.Join(dir, "absent"), dangling))

	files := Enumerate(dir)
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Contains(t, names, "link.txt")
	assert.Contains(t, names, "real.txt")
	assert.NotContains(t, names, "gone.txt")
}

func TestEnumerateSkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are ignored for root")
	}
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.Mkdir(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(blocked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o755) })

	files := Enumerate(dir)
	require.Len(t, files, 1)
	assert.Equal(t, "visible.txt", filepath.Base(files[0]))
}

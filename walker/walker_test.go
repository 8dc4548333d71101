package walker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/findex/ignore"
	"github.com/lexandro/findex/index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeTree creates the given files (and their parent directories) under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func build(t *testing.T, root string, options ignore.MatcherOptions) (*index.FileIndex, Stats) {
	t.Helper()
	options.RootDir = root
	matcher, err := ignore.NewMatcher(options)
	require.NoError(t, err)

	w := New(Options{RootDir: root, Matcher: matcher, Logger: testLogger()})
	fi, stats, err := w.Build(context.Background())
	require.NoError(t, err)
	return fi, stats
}

func Test_Walker_Build_UniqueNames(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "docs/report.pdf", "docs/deep/notes.md")

	fi, stats := build(t, root, ignore.MatcherOptions{SkipName: "Library"})

	expected := map[string]string{
		"a.txt":      filepath.Join(root, "a.txt"),
		"docs":       filepath.Join(root, "docs"),
		"report.pdf": filepath.Join(root, "docs", "report.pdf"),
		"deep":       filepath.Join(root, "docs", "deep"),
		"notes.md":   filepath.Join(root, "docs", "deep", "notes.md"),
	}
	assert.Equal(t, expected, fi.Files())
	assert.Equal(t, 5, stats.Entries)
	assert.Zero(t, stats.Errors)
	for _, path := range fi.Files() {
		assert.True(t, filepath.IsAbs(path), path)
	}
}

func Test_Walker_Build_RelativeRootYieldsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.txt")

	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, root)
	require.NoError(t, err)

	fi, _ := build(t, rel, ignore.MatcherOptions{})

	path, ok := fi.Path("file.txt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "file.txt"), path)
}

func Test_Walker_Build_SkipNameAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"Library/Caches/top.db",
		"a/b/Library/inner.plist",
		"a/b/kept.txt",
		"library/lowercase.txt",
	)

	fi, _ := build(t, root, ignore.MatcherOptions{SkipName: "Library"})

	for _, name := range []string{"Library", "Caches", "top.db", "inner.plist"} {
		_, ok := fi.Path(name)
		assert.False(t, ok, "%s must not be indexed", name)
	}
	for _, name := range []string{"a", "b", "kept.txt", "library", "lowercase.txt"} {
		_, ok := fi.Path(name)
		assert.True(t, ok, "%s must be indexed", name)
	}
}

func Test_Walker_Build_FileNamedLikeSkipNameIsKept(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "Library")

	fi, _ := build(t, root, ignore.MatcherOptions{SkipName: "Library"})

	_, ok := fi.Path("Library")
	assert.True(t, ok, "only directories are skipped by name")
}

func Test_Walker_Build_RootMatchingSkipName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Library")
	writeTree(t, root, "a.txt")

	fi, _ := build(t, root, ignore.MatcherOptions{SkipName: "Library"})

	assert.Equal(t, 0, fi.Len())
}

func Test_Walker_Build_DuplicateNamesCollapse(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a/dup.txt", "b/dup.txt", "c/x/dup.txt")

	fi, stats := build(t, root, ignore.MatcherOptions{})

	path, ok := fi.Path("dup.txt")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "c", "x", "dup.txt"), path, "lexically last entry wins")
	assert.Equal(t, 7, stats.Entries)
	assert.Equal(t, 5, fi.Len())
}

func Test_Walker_Build_Exclusions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "keep.txt", "big.iso", "tmp/scratch.txt", "notes.tmp")
	require.NoError(t, os.WriteFile(filepath.Join(root, ignore.DefaultIgnoreFile), []byte("*.tmp\n"), 0644))

	fi, stats := build(t, root, ignore.MatcherOptions{
		ExcludePatterns: []string{"*.iso", "tmp"},
		IgnoreFile:      ignore.DefaultIgnoreFile,
	})

	for _, name := range []string{"big.iso", "tmp", "scratch.txt", "notes.tmp"} {
		_, ok := fi.Path(name)
		assert.False(t, ok, name)
	}
	_, ok := fi.Path("keep.txt")
	assert.True(t, ok)
	assert.Equal(t, 3, stats.Skipped)
}

func Test_Walker_Build_UnreadableDirectoryIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := t.TempDir()
	writeTree(t, root, "locked/hidden.txt", "open/visible.txt")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	fi, stats := build(t, root, ignore.MatcherOptions{})

	_, ok := fi.Path("locked")
	assert.True(t, ok, "the directory entry itself is still recorded")
	_, ok = fi.Path("hidden.txt")
	assert.False(t, ok)
	_, ok = fi.Path("visible.txt")
	assert.True(t, ok, "walk continues with siblings")
	assert.Equal(t, 1, stats.Errors)
}

func Test_Walker_Build_UndecodableNameIsSkipped(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "bad\xffname.txt")
	if err := os.WriteFile(bad, []byte("x"), 0644); err != nil {
		t.Skipf("filesystem rejects non UTF-8 names: %v", err)
	}
	writeTree(t, root, "good.txt")

	fi, stats := build(t, root, ignore.MatcherOptions{})

	assert.Equal(t, 1, fi.Len())
	assert.Equal(t, 1, stats.Skipped)
}

func Test_Walker_Build_SymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	base := t.TempDir()
	target := filepath.Join(base, "real")
	writeTree(t, target, "Notes.txt", "docs/report.pdf", "Library/hidden.txt")
	link := filepath.Join(base, "home")
	require.NoError(t, os.Symlink(target, link))

	fi, stats := build(t, link, ignore.MatcherOptions{SkipName: "Library"})

	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, map[string]string{
		"Notes.txt":  filepath.Join(resolved, "Notes.txt"),
		"docs":       filepath.Join(resolved, "docs"),
		"report.pdf": filepath.Join(resolved, "docs", "report.pdf"),
	}, fi.Files())
}

func Test_Walker_Build_DanglingRootSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	link := filepath.Join(t.TempDir(), "home")
	require.NoError(t, os.Symlink(filepath.Join(t.TempDir(), "gone"), link))

	_, _, err := New(Options{RootDir: link, Logger: testLogger()}).Build(context.Background())
	assert.ErrorIs(t, err, ErrRootUnavailable)
}

func Test_Walker_Build_MissingRoot(t *testing.T) {
	w := New(Options{RootDir: filepath.Join(t.TempDir(), "nope"), Logger: testLogger()})

	_, _, err := w.Build(context.Background())
	assert.True(t, errors.Is(err, ErrRootUnavailable))
}

func Test_Walker_Build_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.txt")
	w := New(Options{RootDir: filepath.Join(root, "file.txt"), Logger: testLogger()})

	_, _, err := w.Build(context.Background())
	assert.ErrorIs(t, err, ErrRootUnavailable)
}

func Test_Walker_Build_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(Options{RootDir: root, Logger: testLogger()}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Walker_Build_NilMatcher(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "Library/a.txt")

	fi, _, err := New(Options{RootDir: root}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fi.Len())
}

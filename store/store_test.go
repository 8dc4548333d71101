package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/findex/index"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "findex", DefaultFileName))
}

func roundTrip(t *testing.T, files map[string]string) *index.FileIndex {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.Save(index.NewFileIndex(files)))

	loaded, err := s.Load()
	require.NoError(t, err)
	return loaded
}

func Test_Store_RoundTrip_Empty(t *testing.T) {
	loaded := roundTrip(t, map[string]string{})

	assert.Equal(t, 0, loaded.Len())
}

func Test_Store_RoundTrip_Single(t *testing.T) {
	files := map[string]string{"Notes.txt": "/Users/a/Notes.txt"}

	assert.Equal(t, files, roundTrip(t, files).Files())
}

func Test_Store_RoundTrip_NonASCII(t *testing.T) {
	files := map[string]string{
		"Überblick.pdf":   "/Users/ö/Überblick.pdf",
		"写真.jpg":          "/Users/a/写真.jpg",
		"emoji 🎉.txt":     "/Users/a/emoji 🎉.txt",
		"a&b<c>.html":     "/Users/a/a&b<c>.html",
		"quote\"name.txt": "/Users/a/quote\"name.txt",
	}

	assert.Equal(t, files, roundTrip(t, files).Files())
}

func Test_Store_RoundTrip_Large(t *testing.T) {
	files := make(map[string]string, 20000)
	for i := 0; i < 20000; i++ {
		name := fmt.Sprintf("file-%05d.dat", i)
		files[name] = "/data/" + name
	}

	assert.Equal(t, files, roundTrip(t, files).Files())
}

func Test_Store_Exists(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.Exists())

	require.NoError(t, s.Save(index.NewFileIndex(nil)))
	assert.True(t, s.Exists())
}

func Test_Store_Save_Overwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(index.NewFileIndex(map[string]string{"old.txt": "/old.txt"})))
	require.NoError(t, s.Save(index.NewFileIndex(map[string]string{"new.txt": "/new.txt"})))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"new.txt": "/new.txt"}, loaded.Files())
}

func Test_Store_Save_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(index.NewFileIndex(map[string]string{"a": "/a"})))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultFileName, entries[0].Name())
}

func Test_Store_FailedSave_KeepsPreviousFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	s := newTestStore(t)
	original := map[string]string{"keep.txt": "/keep.txt"}
	require.NoError(t, s.Save(index.NewFileIndex(original)))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	dir := filepath.Dir(s.Path())
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err = s.Save(index.NewFileIndex(map[string]string{"other.txt": "/other.txt"}))
	require.Error(t, err)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, original, loaded.Files())
}

func Test_Store_FailedEncode_KeepsPreviousFile(t *testing.T) {
	s := newTestStore(t)
	original := map[string]string{"keep.txt": "/keep.txt"}
	require.NoError(t, s.Save(index.NewFileIndex(original)))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	// Fail after part of the new document has reached the temp file.
	s.encode = func(w io.Writer, doc document) error {
		if _, err := io.WriteString(w, `{"version": 1, "files": {"other.txt": `); err != nil {
			return err
		}
		if flusher, ok := w.(interface{ Flush() error }); ok {
			if err := flusher.Flush(); err != nil {
				return err
			}
		}
		return errors.New("disk full")
	}

	err = s.Save(index.NewFileIndex(map[string]string{"other.txt": "/other.txt"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must be cleaned up")

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, original, loaded.Files())
}

func Test_Store_Load_Missing(t *testing.T) {
	_, err := newTestStore(t).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func Test_Store_Load_Corrupt(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"files": {"a": "/a"`), 0644))

	loaded, err := s.Load()
	assert.Error(t, err)
	assert.Nil(t, loaded)
}

func Test_Store_Load_UnversionedDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"files":{"Notes.txt":"/Users/a/Notes.txt"}}`), 0644))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Notes.txt": "/Users/a/Notes.txt"}, loaded.Files())
}

func Test_Store_Load_FutureVersion(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"version":99,"files":{}}`), 0644))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func Test_DefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, DefaultFileName, filepath.Base(path))
	assert.Equal(t, appDirName, filepath.Base(filepath.Dir(path)))
}

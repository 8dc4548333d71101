package index

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileIndex is an immutable name -> path snapshot of a directory tree.
// At most one path is kept per name: when several entries share a name,
// the one inserted last while building wins.
type FileIndex struct {
	files map[string]string // key: entry name, value: absolute path
}

// NewFileIndex wraps files in a FileIndex. The index takes ownership of the
// map; callers must not modify it afterwards.
func NewFileIndex(files map[string]string) *FileIndex {
	if files == nil {
		files = make(map[string]string)
	}
	return &FileIndex{files: files}
}

// Len returns the number of indexed names.
func (fi *FileIndex) Len() int {
	if fi == nil {
		return 0
	}
	return len(fi.files)
}

// Path returns the path recorded for name.
func (fi *FileIndex) Path(name string) (string, bool) {
	if fi == nil {
		return "", false
	}
	path, ok := fi.files[name]
	return path, ok
}

// Files exposes the underlying mapping for serialization. It must be treated as read-only.
func (fi *FileIndex) Files() map[string]string {
	if fi == nil {
		return map[string]string{}
	}
	return fi.files
}

// Entries returns all entries sorted by name. Use with caution on large indexes.
func (fi *FileIndex) Entries() []Entry {
	entries := make([]Entry, 0, fi.Len())
	for name, path := range fi.Files() {
		entries = append(entries, Entry{Name: name, Path: path})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// SearchByGlob returns entries matching a doublestar glob pattern, sorted by path.
// A pattern without a slash is matched against entry names, otherwise against
// the forward-slash form of the absolute path.
func (fi *FileIndex) SearchByGlob(pattern string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	// Normalize pattern to forward slashes
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	matchName := !strings.Contains(pattern, "/")

	var matches []Entry
	for name, path := range fi.Files() {
		subject := name
		if !matchName {
			subject = filepath.ToSlash(path)
		}
		matched, err := doublestar.Match(pattern, subject)
		if err != nil || !matched {
			continue
		}
		matches = append(matches, Entry{Name: name, Path: path})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// Builder accumulates entries for a new FileIndex during a traversal.
// It is not safe for concurrent use.
type Builder struct {
	files map[string]string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{files: make(map[string]string)}
}

// Add records name -> path, replacing any earlier path for the same name.
func (b *Builder) Add(name, path string) {
	b.files[name] = path
}

// Len returns the number of distinct names added so far.
func (b *Builder) Len() int {
	return len(b.files)
}

// Build seals the accumulated entries into a FileIndex and resets the builder.
func (b *Builder) Build() *FileIndex {
	fi := NewFileIndex(b.files)
	b.files = make(map[string]string)
	return fi
}

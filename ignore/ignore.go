package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Matcher decides which entries a traversal omits.
// It combines the skip name, an optional gitignore-syntax file at the root and
// custom doublestar patterns. With no patterns and no ignore file present, only
// directories named exactly like the skip name are omitted.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore() acquires a read lock.
type Matcher struct {
	mu              sync.RWMutex
	rootDir         string
	skipName        string
	ignoreFileName  string
	ignoreFile      gitignore.GitIgnore
	excludePatterns []string
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// SkipName is a directory name (case-sensitive) whose whole subtree is omitted.
	SkipName string
	// ExcludePatterns are doublestar globs matched against root-relative
	// forward-slash paths and against entry names.
	ExcludePatterns []string
	// IgnoreFile names a gitignore-syntax file in RootDir. Empty disables it.
	IgnoreFile string
}

// NewMatcher creates an ignore matcher. It fails on malformed exclude patterns.
func NewMatcher(options MatcherOptions) (*Matcher, error) {
	for _, pattern := range options.ExcludePatterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	matcher := &Matcher{
		rootDir:         options.RootDir,
		skipName:        options.SkipName,
		ignoreFileName:  options.IgnoreFile,
		excludePatterns: options.ExcludePatterns,
	}
	matcher.ignoreFile = matcher.loadIgnoreFile()
	return matcher, nil
}

// RootDir returns the directory the matcher resolves relative paths against.
func (m *Matcher) RootDir() string {
	return m.rootDir
}

// SkipName returns the configured skip name.
func (m *Matcher) SkipName() string {
	return m.skipName
}

// IsSkipName reports whether a directory with this final path segment is skipped.
func (m *Matcher) IsSkipName(name string) bool {
	return m.skipName != "" && name == m.skipName
}

// ShouldSkipDir returns true if a directory and everything beneath it should be omitted.
func (m *Matcher) ShouldSkipDir(absolutePath string) bool {
	if m.IsSkipName(filepath.Base(absolutePath)) {
		return true
	}
	return m.ShouldIgnore(absolutePath, true)
}

// ShouldIgnore returns true if the entry at absolutePath should be left out of the index.
func (m *Matcher) ShouldIgnore(absolutePath string, isDir bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if m.ignoreFile != nil {
		match := m.ignoreFile.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesExcludePatterns(relativePath)
}

// matchesExcludePatterns checks the root-relative path and its basename against the exclude globs.
func (m *Matcher) matchesExcludePatterns(relativePath string) bool {
	if len(m.excludePatterns) == 0 {
		return false
	}
	baseName := relativePath
	if slash := strings.LastIndexByte(relativePath, '/'); slash >= 0 {
		baseName = relativePath[slash+1:]
	}

	for _, pattern := range m.excludePatterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads the ignore file from disk. Each refresh cycle calls it so
// edits to the file apply to the next rebuild.
func (m *Matcher) Reload() {
	newIgnoreFile := m.loadIgnoreFile()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignoreFile = newIgnoreFile
}

// loadIgnoreFile reads the ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func (m *Matcher) loadIgnoreFile() gitignore.GitIgnore {
	if m.ignoreFileName == "" {
		return nil
	}
	f, err := os.Open(filepath.Join(m.rootDir, m.ignoreFileName))
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, m.rootDir, nil)
}

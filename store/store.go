// Package store persists a FileIndex as a single JSON document.
//
// Saves are atomic: the document is written to a temporary file next to the
// destination and renamed into place, so readers observe either the previous
// index or the new one, never a partial file. Loads are all-or-nothing.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/lexandro/findex/index"
)

const (
	// SchemaVersion is written into every saved document.
	SchemaVersion = 1

	// DefaultFileName is the index file name inside the per-user config directory.
	DefaultFileName = "index.json"

	appDirName = "findex"
)

// ErrUnsupportedVersion is returned when loading a document written by a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported index schema version")

// document is the on-disk layout. Documents without a version field
// (version 0) carry the same files mapping and are accepted.
type document struct {
	Version int               `json:"version"`
	Files   map[string]string `json:"files"`
}

// Store reads and writes the index file at a fixed location.
// It does not lock the file against other processes.
type Store struct {
	path   string
	encode func(w io.Writer, doc document) error
}

// New creates a store for the index file at path.
func New(path string) *Store {
	return &Store{path: path, encode: encodeDocument}
}

func encodeDocument(w io.Writer, doc document) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(doc)
}

// DefaultPath returns the index file location in the per-user configuration directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(configDir, appDirName, DefaultFileName), nil
}

// Path returns the index file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether an index file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Stat returns file information for the index file.
func (s *Store) Stat() (os.FileInfo, error) {
	return os.Stat(s.path)
}

// Save serializes fileIndex and atomically replaces the index file.
// On failure the previous file, if any, is left untouched.
func (s *Store) Save(fileIndex *index.FileIndex) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	pending, err := renameio.TempFile(filepath.Dir(s.path), s.path)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer pending.Cleanup()

	writer := bufio.NewWriter(pending)
	doc := document{Version: SchemaVersion, Files: fileIndex.Files()}
	if err := s.encode(writer, doc); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// Load reads the index file. Any open, read or parse failure is returned
// as an error; a partial index is never returned.
func (s *Store) Load() (*index.FileIndex, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var doc document
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing index file %s: %w", s.path, err)
	}
	if doc.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, doc.Version, SchemaVersion)
	}
	return index.NewFileIndex(doc.Files), nil
}

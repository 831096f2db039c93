// Package filex manages the local files a request stages before they are
// pushed to object storage.
package filex

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// EnsureSubdDir creates dirName (relative to the working directory unless it
// is absolute) and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// Stash holds the files staged for one request under <root>/<uuid>/ using
// their original base names, so two parts with the same file name resolve to
// the same local path. Cleanup removes whatever is still there; every path is
// removed at most once. On a name collision the later part overwrites the
// earlier one's content.
type Stash struct {
	dir    string
	remove func(string) error

	mu    sync.Mutex
	files map[string]bool
}

func NewStash(root string) (*Stash, error) {
	dir := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Stash{dir: dir, remove: os.Remove, files: make(map[string]bool)}, nil
}

// Dir returns the per-request staging directory.
func (s *Stash) Dir() string {
	return s.dir
}

// Save copies an uploaded multipart file into the stash and returns its path.
func (s *Stash) Save(fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = "upload"
	}
	path := filepath.Join(s.dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	s.files[path] = true

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// Discard removes a single staged file now. Unknown or already removed paths
// are a no-op.
func (s *Stash) Discard(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discardLocked(path)
}

func (s *Stash) discardLocked(path string) error {
	if !s.files[path] {
		return nil
	}
	s.files[path] = false
	if err := s.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Cleanup removes every remaining staged file and the staging directory.
func (s *Stash) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for path := range s.files {
		if err := s.discardLocked(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

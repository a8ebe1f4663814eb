// Package store provides line-oriented flat-file sets used for the
// seen-listing ids and the subscriber chat ids. One id per line.
package store

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore is an append-only set of string ids backed by a text file.
// Access is serialized within the process; concurrent modification of
// the file by other processes is undefined behavior.
type FileStore struct {
	path string

	mu  sync.Mutex
	ids map[string]struct{}
}

// NewFileStore opens (or creates on first append) the file at path and
// loads all ids from it. A missing file yields an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		ids:  make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open store file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}

	return s, nil
}

// Contains reports whether id is in the set
func (s *FileStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ids[id]
	return ok
}

// Append adds id to the set and persists it as a new line. Appending an
// id that is already present is a no-op, so the file holds each id once.
func (s *FileStore) Append(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store file %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("failed to append to store file %s: %w", s.path, err)
	}

	s.ids[id] = struct{}{}
	return nil
}

// Len returns the number of ids in the set
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.ids)
}

// All returns a sorted copy of all ids
func (s *FileStore) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// ClearIfOlderThan removes the file at path when its modification time is
// older than maxAge, so stale seen ids do not suppress re-listings. It
// reports whether the file was removed.
func ClearIfOlderThan(path string, maxAge time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if time.Since(info.ModTime()) <= maxAge {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}

// Package store persists deduplicated path lists that survive across runs.
// Each store is a compressed snapshot file of every path a pipeline has
// already handled, used to avoid reprocessing.
package store

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/szmania/mega-manager/internal/logger"
)

// Store is an ordered deduplicated set of file paths backed by a compressed
// snapshot file. The in-memory set is authoritative; the snapshot is
// rewritten after every mutation so a crash loses at most the current add.
// All methods are safe for concurrent use.
type Store struct {
	path string

	mu    sync.Mutex
	items []string
	index map[string]struct{}
}

// Open loads the store at path. A missing or unreadable snapshot yields an
// empty store; corruption is logged, never propagated.
func Open(path string) *Store {
	s := &Store{
		path:  path,
		index: make(map[string]struct{}),
	}
	s.load()
	return s
}

func (s *Store) load() {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("Could not open list file %s: %v", s.path, err)
		}
		return
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		logger.Debug("Could not read list file %s: %v", s.path, err)
		return
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, dup := s.index[line]; dup {
			continue
		}
		s.index[line] = struct{}{}
		s.items = append(s.items, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("Corrupt list file %s, keeping %d entries read so far: %v", s.path, len(s.items), err)
	}
}

// Contains reports whether path has been recorded.
func (s *Store) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[path]
	return ok
}

// ContainsPrefixOf reports whether any recorded entry is a path prefix of
// path. It guards against re-deleting children of an already-deleted
// directory.
func (s *Store) ContainsPrefixOf(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if strings.HasPrefix(path, item) {
			return true
		}
	}
	return false
}

// Add records path if absent and immediately rewrites the snapshot. Snapshot
// write failures are logged and the in-memory set stays authoritative.
func (s *Store) Add(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[path]; dup {
		return
	}
	s.index[path] = struct{}{}
	s.items = append(s.items, path)
	s.saveLocked()
}

// Flush rewrites the snapshot from the current in-memory set.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

func (s *Store) saveLocked() {
	f, err := os.Create(s.path)
	if err != nil {
		logger.Warning("Could not write list file %s: %v", s.path, err)
		return
	}

	zw := gzip.NewWriter(f)
	for _, item := range s.items {
		if _, err := zw.Write([]byte(item + "\n")); err != nil {
			logger.Warning("Could not write list file %s: %v", s.path, err)
			zw.Close()
			f.Close()
			return
		}
	}
	if err := zw.Close(); err != nil {
		logger.Warning("Could not finish list file %s: %v", s.path, err)
	}
	if err := f.Close(); err != nil {
		logger.Warning("Could not close list file %s: %v", s.path, err)
	}
}

// Len returns the number of recorded paths.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the recorded paths in insertion order.
func (s *Store) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "processed.gz")
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s := Open(tempStorePath(t))
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}

func TestOpenCorruptFileIsEmpty(t *testing.T) {
	path := tempStorePath(t)
	if err := os.WriteFile(path, []byte("not gzip at all"), 0644); err != nil {
		t.Fatal(err)
	}
	s := Open(path)
	if s.Len() != 0 {
		t.Errorf("expected empty store for corrupt file, got %d entries", s.Len())
	}
}

func TestRoundTrip(t *testing.T) {
	path := tempStorePath(t)

	s := Open(path)
	s.Add("/home/me/mega/a.jpg")
	s.Add("/home/me/mega/b.jpg")
	s.Add("/home/me/mega/a.jpg") // duplicate

	reloaded := Open(path)
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", reloaded.Len())
	}
	for _, p := range []string{"/home/me/mega/a.jpg", "/home/me/mega/b.jpg"} {
		if !reloaded.Contains(p) {
			t.Errorf("reloaded store missing %s", p)
		}
	}
}

func TestContainsPrefixOf(t *testing.T) {
	s := Open(tempStorePath(t))
	s.Add("/Root/backup/old")

	if !s.ContainsPrefixOf("/Root/backup/old/sub/file.txt") {
		t.Error("expected prefix match for child of removed directory")
	}
	if s.ContainsPrefixOf("/Root/backup/other/file.txt") {
		t.Error("unexpected prefix match for unrelated path")
	}
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	path := tempStorePath(t)
	s := Open(path)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Add(fmt.Sprintf("/mega/profile%d/file%d.jpg", w, i))
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != workers*perWorker {
		t.Errorf("in-memory set has %d entries, want %d", s.Len(), workers*perWorker)
	}

	reloaded := Open(path)
	if reloaded.Len() != workers*perWorker {
		t.Errorf("persisted set has %d entries, want %d", reloaded.Len(), workers*perWorker)
	}
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "sub", "does", "not", "exist", "list.gz"))

	s.Add("/mega/a.jpg")
	if !s.Contains("/mega/a.jpg") {
		t.Error("in-memory set lost entry after failed save")
	}
}

package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/vcs/pkg/object"
)

// fixedClock returns a clock that advances one second per call, so commits
// made in a test get distinct, predictable timestamps.
func fixedClock() func() time.Time {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func initTestRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeWorkFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	path := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func addFiles(t *testing.T, r *Repo, files map[string]string) {
	t.Helper()
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		writeWorkFile(t, r, rel, content)
		paths = append(paths, rel)
	}
	if err := r.Add(paths); err != nil {
		t.Fatalf("Add(%v): %v", paths, err)
	}
}

func mustCommit(t *testing.T, r *Repo, msg string) object.Hash {
	t.Helper()
	h, err := r.Commit(msg, WithAuthor("tester"))
	if err != nil {
		t.Fatalf("Commit(%q): %v", msg, err)
	}
	return h
}

func headTreeFiles(t *testing.T, r *Repo) map[string]object.Hash {
	t.Helper()
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head == "" {
		return nil
	}
	c, err := r.Store.ReadCommit(head)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	files, err := r.FlattenTree(c.TreeHash)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	out := make(map[string]object.Hash, len(files))
	for _, f := range files {
		out[f.Path] = f.BlobHash
	}
	return out
}

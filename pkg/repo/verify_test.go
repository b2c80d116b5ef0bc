package repo

import (
	"errors"
	"os"
	"testing"

	"github.com/odvcencio/vcs/pkg/object"
)

func TestVerifyHealthyRepository(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a", "dir/b.txt": "b"})
	mustCommit(t, r, "first")
	addFiles(t, r, map[string]string{"a.txt": "a2"})
	mustCommit(t, r, "second")

	report, err := r.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Commits != 2 {
		t.Errorf("Commits = %d, want 2", report.Commits)
	}
	// Trees: root1, root2, dir (shared). Blobs: a, a2, b.
	if report.ReachableTrees != 3 || report.ReachableBlobs != 3 {
		t.Errorf("reachable trees=%d blobs=%d, want 3 and 3", report.ReachableTrees, report.ReachableBlobs)
	}
	if report.Objects != 8 {
		t.Errorf("Objects = %d, want 8", report.Objects)
	}
	if report.IndexEntries != 2 {
		t.Errorf("IndexEntries = %d, want 2", report.IndexEntries)
	}
}

func TestVerifyEmptyRepository(t *testing.T) {
	r := initTestRepo(t)
	report, err := r.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Commits != 0 || report.Objects != 0 {
		t.Fatalf("report = %+v, want zeroes", report)
	}
}

func TestVerifyDetectsCorruptObject(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})
	mustCommit(t, r, "first")

	blob := object.HashObject(object.TypeBlob, []byte("a"))
	path := r.VcsDir + "/objects/" + string(blob[:2]) + "/" + string(blob[2:])
	if err := os.WriteFile(path, []byte("blob 1\x00b"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := r.Verify(); !errors.Is(err, ErrRepositoryInconsistent) {
		t.Fatalf("Verify err = %v, want ErrRepositoryInconsistent", err)
	}
}

func TestVerifyDetectsMissingBlob(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})
	mustCommit(t, r, "first")

	blob := object.HashObject(object.TypeBlob, []byte("a"))
	path := r.VcsDir + "/objects/" + string(blob[:2]) + "/" + string(blob[2:])
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, err := r.Verify()
	if !errors.Is(err, ErrRepositoryInconsistent) || !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Verify err = %v, want missing object inconsistency", err)
	}
}

func TestVerifyDetectsKindMismatch(t *testing.T) {
	r := initTestRepo(t)
	blob, err := r.Store.WriteBlob(&object.Blob{Data: []byte("not a tree")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	// A directory entry that points at a blob.
	root, err := r.Store.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Name: "dir", IsDir: true, Hash: blob},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	c, err := r.Store.WriteCommit(&object.CommitObj{TreeHash: root, Author: "x", Message: "bad"})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if err := r.updateHead(c, "", "test"); err != nil {
		t.Fatalf("updateHead: %v", err)
	}

	if _, err := r.Verify(); !errors.Is(err, ErrRepositoryInconsistent) {
		t.Fatalf("Verify err = %v, want ErrRepositoryInconsistent", err)
	}
}

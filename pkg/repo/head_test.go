package repo

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/odvcencio/vcs/pkg/object"
)

func TestUpdateHeadCompareAndSwap(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})
	first := mustCommit(t, r, "first")
	addFiles(t, r, map[string]string{"a.txt": "b"})
	second := mustCommit(t, r, "second")

	// HEAD is at second; a writer that still expects first must lose.
	err := r.updateHead(first, first, "stale")
	if !errors.Is(err, ErrHeadCASMismatch) {
		t.Fatalf("updateHead err = %v, want ErrHeadCASMismatch", err)
	}
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != second {
		t.Fatalf("HEAD = %s, want %s", head, second)
	}
	if _, err := os.Stat(r.headPath() + ".lock"); !os.IsNotExist(err) {
		t.Fatal("HEAD.lock left behind after CAS failure")
	}
}

func TestUpdateHeadRequiresStoredCommit(t *testing.T) {
	r := initTestRepo(t)
	missing := object.HashObject(object.TypeCommit, []byte("nope"))
	if err := r.updateHead(missing, "", "test"); !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("updateHead err = %v, want ErrObjectNotFound", err)
	}
}

func TestUpdateHeadWaitsForLock(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})

	if err := os.WriteFile(r.headPath()+".lock", nil, 0o644); err != nil {
		t.Fatalf("create lock: %v", err)
	}
	if _, err := r.Commit("blocked", WithAuthor("tester")); err == nil {
		t.Fatal("Commit succeeded while HEAD.lock was held")
	}
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != "" {
		t.Fatalf("HEAD moved to %s while locked", head)
	}
}

func TestHeadMalformed(t *testing.T) {
	r := initTestRepo(t)
	if err := os.WriteFile(r.headPath(), []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}
	if _, err := r.Head(); !errors.Is(err, ErrRepositoryInconsistent) {
		t.Fatalf("Head err = %v, want ErrRepositoryInconsistent", err)
	}
}

func TestReflogRecordsCommits(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})
	first := mustCommit(t, r, "first line\n\nbody")
	addFiles(t, r, map[string]string{"a.txt": "b"})
	second := mustCommit(t, r, "second")

	entries, err := r.ReadReflog(0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("reflog has %d entries, want 2", len(entries))
	}
	if entries[0].OldHash != first || entries[0].NewHash != second {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].OldHash != "" || entries[1].NewHash != first {
		t.Errorf("oldest entry = %+v", entries[1])
	}
	if entries[1].Reason != "commit: first line" {
		t.Errorf("reason = %q", entries[1].Reason)
	}
	if entries[0].Timestamp <= entries[1].Timestamp {
		t.Error("reflog timestamps not increasing")
	}

	limited, err := r.ReadReflog(1)
	if err != nil {
		t.Fatalf("ReadReflog(1): %v", err)
	}
	if len(limited) != 1 || limited[0].NewHash != second {
		t.Errorf("ReadReflog(1) = %+v", limited)
	}
}

func TestReflogEmpty(t *testing.T) {
	r := initTestRepo(t)
	entries, err := r.ReadReflog(0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("reflog = %v, want empty", entries)
	}
}

func TestReflogSkipsMalformedLines(t *testing.T) {
	r := initTestRepo(t)
	addFiles(t, r, map[string]string{"a.txt": "a"})
	mustCommit(t, r, "first")

	f, err := os.OpenFile(r.headLogPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("not a reflog line\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	entries, err := r.ReadReflog(0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("reflog has %d entries, want 1", len(entries))
	}
}

func TestHeadUpdateLogErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&HeadUpdateLogError{OldHash: "", NewHash: object.ZeroHash, Err: cause})
	if !errors.Is(err, ErrHeadUpdatedButLogAppendFailed) {
		t.Error("HeadUpdateLogError does not match ErrHeadUpdatedButLogAppendFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("HeadUpdateLogError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q", err.Error())
	}
}

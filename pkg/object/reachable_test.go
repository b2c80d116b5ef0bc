package object

import (
	"errors"
	"testing"
)

func TestReachableSetFollowsCommitChain(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	blob, err := s.WriteBlob(&Blob{Data: []byte("file")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	sub, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{{Name: "f", Hash: blob}}})
	if err != nil {
		t.Fatalf("WriteTree sub: %v", err)
	}
	root, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "dir", IsDir: true, Hash: sub},
		{Name: "top", Hash: blob},
	}})
	if err != nil {
		t.Fatalf("WriteTree root: %v", err)
	}
	first, err := s.WriteCommit(&CommitObj{TreeHash: sub, Author: "a", Message: "one"})
	if err != nil {
		t.Fatalf("WriteCommit first: %v", err)
	}
	second, err := s.WriteCommit(&CommitObj{TreeHash: root, Parent: first, Author: "a", Message: "two"})
	if err != nil {
		t.Fatalf("WriteCommit second: %v", err)
	}
	// Unreferenced objects must not show up.
	if _, err := s.WriteBlob(&Blob{Data: []byte("orphan")}); err != nil {
		t.Fatalf("WriteBlob orphan: %v", err)
	}

	got, err := s.ReachableSet([]Hash{second, ZeroHash, second})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	want := map[Hash]ObjectType{
		second: TypeCommit,
		first:  TypeCommit,
		root:   TypeTree,
		sub:    TypeTree,
		blob:   TypeBlob,
	}
	if len(got) != len(want) {
		t.Fatalf("ReachableSet = %d objects, want %d: %v", len(got), len(want), got)
	}
	for h, typ := range want {
		if got[h] != typ {
			t.Errorf("object %s = %q, want %q", h.Short(), got[h], typ)
		}
	}
}

func TestReachableSetMissingObject(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	missing := HashObject(TypeBlob, []byte("gone"))
	tree, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{{Name: "f", Hash: missing}}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := s.ReachableSet([]Hash{tree}); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("ReachableSet err = %v, want ErrObjectNotFound", err)
	}
}

func TestReachableSetNoRoots(t *testing.T) {
	s := NewStore(nil, t.TempDir())
	got, err := s.ReachableSet(nil)
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ReachableSet(nil) = %v, want empty", got)
	}
}

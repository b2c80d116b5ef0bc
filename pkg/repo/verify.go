package repo

import (
	"fmt"

	"github.com/odvcencio/vcs/pkg/object"
)

// VerifyReport summarizes a successful Verify.
type VerifyReport struct {
	Objects        int // objects re-hashed in the store
	Commits        int // commits on the chain from HEAD
	ReachableTrees int
	ReachableBlobs int
	IndexEntries   int
}

// Verify checks the repository invariants:
//   - every stored object parses and hashes back to its id
//   - walking parents from HEAD reaches "none" without a cycle, and every
//     step is a commit
//   - every commit tree is a tree, and every tree entry resolves to an
//     object of the kind its mode says
//   - every index entry names a stored blob
//
// A violation is reported as an error wrapping ErrRepositoryInconsistent.
func (r *Repo) Verify() (*VerifyReport, error) {
	summary, err := r.Store.Verify()
	if err != nil {
		return nil, fmt.Errorf("verify: %w: %w", ErrRepositoryInconsistent, err)
	}
	report := &VerifyReport{Objects: summary.Objects}

	chain, err := r.Log("", 0)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report.Commits = len(chain)

	roots := make([]object.Hash, 0, len(chain))
	for _, entry := range chain {
		roots = append(roots, entry.Hash)
	}
	reachable, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("verify: %w: %w", ErrRepositoryInconsistent, err)
	}

	checkedTrees := make(map[object.Hash]struct{})
	for _, entry := range chain {
		if kind := reachable[entry.Commit.TreeHash]; kind != object.TypeTree {
			return nil, fmt.Errorf("verify: %w: commit %s tree %s is a %q", ErrRepositoryInconsistent, entry.Hash, entry.Commit.TreeHash, kind)
		}
		if err := r.verifyTree(entry.Commit.TreeHash, reachable, checkedTrees); err != nil {
			return nil, fmt.Errorf("verify: commit %s: %w", entry.Hash, err)
		}
	}
	for _, kind := range reachable {
		switch kind {
		case object.TypeTree:
			report.ReachableTrees++
		case object.TypeBlob:
			report.ReachableBlobs++
		}
	}

	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, p := range stg.Paths() {
		e := stg.Entries[p]
		objType, _, err := r.Store.Read(e.BlobHash)
		if err != nil {
			return nil, fmt.Errorf("verify: %w: index entry %q: %w", ErrRepositoryInconsistent, p, err)
		}
		if objType != object.TypeBlob {
			return nil, fmt.Errorf("verify: %w: index entry %q names a %q", ErrRepositoryInconsistent, p, objType)
		}
	}
	report.IndexEntries = len(stg.Entries)
	return report, nil
}

func (r *Repo) verifyTree(h object.Hash, reachable map[object.Hash]object.ObjectType, checked map[object.Hash]struct{}) error {
	if _, ok := checked[h]; ok {
		return nil
	}
	checked[h] = struct{}{}

	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("%w: tree %s: %w", ErrRepositoryInconsistent, h, err)
	}
	for _, e := range tree.Entries {
		if kind := reachable[e.Hash]; kind != e.Kind() {
			return fmt.Errorf("%w: tree %s entry %q is a %q, want %q", ErrRepositoryInconsistent, h, e.Name, kind, e.Kind())
		}
		if e.IsDir {
			if err := r.verifyTree(e.Hash, reachable, checked); err != nil {
				return err
			}
		}
	}
	return nil
}

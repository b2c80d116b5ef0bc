package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/vcs/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
	Mode     string
}

// BuildTree converts the flat staging entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root hash.
//
// Staging entries use forward-slash paths (e.g. "pkg/util/util.go").
// BuildTree groups them by first path segment, recursively creates subtrees
// depth-first, and writes each tree after all of its children. An empty
// staging area yields the empty tree. A name that is staged both as a file
// and as a directory fails with ErrInvalidPathLayout.
func (r *Repo) BuildTree(s *Staging) (object.Hash, error) {
	return r.buildTreeDir(s.Entries, "")
}

// buildTreeDir builds a TreeObj for the entries below prefix, whose keys
// are paths relative to prefix, and writes it to the store.
func (r *Repo) buildTreeDir(entries map[string]*StagingEntry, prefix string) (object.Hash, error) {
	// name -> entry for direct files, name -> suffix -> entry for subdirs.
	files := make(map[string]*StagingEntry)
	subdirs := make(map[string]map[string]*StagingEntry)

	for rel, entry := range entries {
		name, rest, nested := strings.Cut(rel, "/")
		if !nested {
			files[name] = entry
			continue
		}
		group, ok := subdirs[name]
		if !ok {
			group = make(map[string]*StagingEntry)
			subdirs[name] = group
		}
		group[rest] = entry
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		if _, isDir := subdirs[name]; isDir {
			return "", &PathError{Op: "build tree", Path: path.Join(prefix, name), Err: ErrInvalidPathLayout}
		}
		names = append(names, name)
	}
	for name := range subdirs {
		names = append(names, name)
	}
	sort.Strings(names)

	treeEntries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			treeEntries = append(treeEntries, object.TreeEntry{
				Name: name,
				Mode: normalizeFileMode(entry.Mode),
				Hash: entry.BlobHash,
			})
			continue
		}

		childPrefix := path.Join(prefix, name)
		subHash, err := r.buildTreeDir(subdirs[name], childPrefix)
		if err != nil {
			return "", err
		}
		treeEntries = append(treeEntries, object.TreeEntry{
			Name:  name,
			IsDir: true,
			Mode:  object.TreeModeDir,
			Hash:  subHash,
		})
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: treeEntries})
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes) in sorted order.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
			continue
		}
		result = append(result, TreeFileEntry{
			Path:     fullPath,
			BlobHash: entry.Hash,
			Mode:     normalizeFileMode(entry.Mode),
		})
	}
	return result, nil
}

// TreeEntryAt looks up the entry at relPath inside the tree treeHash. It
// returns ErrPathNotTracked when no such entry exists.
func (r *Repo) TreeEntryAt(treeHash object.Hash, relPath string) (object.TreeEntry, error) {
	segments := strings.Split(strings.Trim(relPath, "/"), "/")
	current := treeHash
	for i, seg := range segments {
		treeObj, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, fmt.Errorf("tree lookup %q: %w", relPath, err)
		}
		idx := sort.Search(len(treeObj.Entries), func(j int) bool {
			return treeObj.Entries[j].Name >= seg
		})
		if idx == len(treeObj.Entries) || treeObj.Entries[idx].Name != seg {
			return object.TreeEntry{}, &PathError{Op: "tree lookup", Path: relPath, Err: ErrPathNotTracked}
		}
		entry := treeObj.Entries[idx]
		if i == len(segments)-1 {
			return entry, nil
		}
		if !entry.IsDir {
			return object.TreeEntry{}, &PathError{Op: "tree lookup", Path: relPath, Err: ErrPathNotTracked}
		}
		current = entry.Hash
	}
	return object.TreeEntry{}, &PathError{Op: "tree lookup", Path: relPath, Err: ErrPathNotTracked}
}

type headTreeState struct {
	BlobHash object.Hash
	Mode     string
}

// headTreeEntries flattens the HEAD commit's tree into path -> state. A
// repository with no commits yields an empty map.
func (r *Repo) headTreeEntries() (map[string]headTreeState, error) {
	result := make(map[string]headTreeState)

	headHash, err := r.Head()
	if err != nil {
		return nil, err
	}
	if headHash == "" {
		return result, nil
	}

	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		result[f.Path] = headTreeState{BlobHash: f.BlobHash, Mode: f.Mode}
	}
	return result, nil
}

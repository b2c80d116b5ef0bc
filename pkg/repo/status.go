package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
)

// FileStatus represents the state of a file in the working tree or index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in staging, not in HEAD tree
	StatusModified                    // in staging, different from HEAD
	StatusDeleted                     // in HEAD but not in staging (or staged but not on disk)
	StatusUntracked                   // in working dir but not in staging
	StatusDirty                       // staged but working copy differs from staged
)

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusNew:
		return "new file"
	case StatusModified, StatusDirty:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	default:
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // staging vs HEAD comparison
	WorkStatus  FileStatus // working tree vs staging comparison
}

// StatusReport is the sorted result of Status.
type StatusReport struct {
	Head    object.Hash
	Entries []StatusEntry
}

// Staged returns entries whose index state differs from HEAD.
func (s *StatusReport) Staged() []StatusEntry {
	return s.filter(func(e StatusEntry) bool {
		return e.IndexStatus != StatusClean && e.IndexStatus != StatusUntracked
	})
}

// Unstaged returns tracked entries whose working copy differs from the index.
func (s *StatusReport) Unstaged() []StatusEntry {
	return s.filter(func(e StatusEntry) bool {
		return e.WorkStatus == StatusDirty || (e.WorkStatus == StatusDeleted && e.IndexStatus != StatusDeleted)
	})
}

// Untracked returns working files that are not staged.
func (s *StatusReport) Untracked() []StatusEntry {
	return s.filter(func(e StatusEntry) bool {
		return e.WorkStatus == StatusUntracked
	})
}

// Clean reports whether index, HEAD and working tree all agree.
func (s *StatusReport) Clean() bool {
	return len(s.Staged()) == 0 && len(s.Unstaged()) == 0 && len(s.Untracked()) == 0
}

func (s *StatusReport) filter(keep func(StatusEntry) bool) []StatusEntry {
	var out []StatusEntry
	for _, e := range s.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Status computes the working tree status for the repository.
//
// Algorithm:
//  1. Read staging index.
//  2. Walk the working directory (skipping .vcs/ and ignored paths).
//  3. Compare working tree files against staging entries.
//  4. Compare staging entries against HEAD tree (if available).
//  5. Return a sorted list of status entries.
func (r *Repo) Status() (*StatusReport, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	ic := NewIgnoreChecker(r.fs, r.RootDir)

	workFiles := make(map[string]os.FileInfo)
	err = afero.Walk(r.fs, r.RootDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() {
			workFiles[rel] = info
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	result := make(map[string]*StatusEntry)
	entryFor := func(path string) *StatusEntry {
		e, ok := result[path]
		if !ok {
			e = &StatusEntry{Path: path}
			result[path] = e
		}
		return e
	}

	// --- Working tree vs staging comparison ---
	for path, info := range workFiles {
		se, inStaging := stg.Entries[path]
		if !inStaging {
			e := entryFor(path)
			e.IndexStatus = StatusUntracked
			e.WorkStatus = StatusUntracked
			continue
		}

		workStatus := StatusClean
		workMode := modeFromFileInfo(info)
		if !stagingStatMatchesWorktree(se, info, workMode) {
			content, err := afero.ReadFile(r.fs, r.absPath(path))
			if err != nil {
				return nil, fmt.Errorf("status: read %q: %w", path, err)
			}
			workHash := object.HashObject(object.TypeBlob, content)
			if workHash != se.BlobHash || workMode != normalizeFileMode(se.Mode) {
				workStatus = StatusDirty
			}
		}
		entryFor(path).WorkStatus = workStatus
	}

	for path := range stg.Entries {
		if _, onDisk := workFiles[path]; !onDisk {
			entryFor(path).WorkStatus = StatusDeleted
		}
	}

	// --- Staging vs HEAD comparison ---
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for path, se := range stg.Entries {
		e := entryFor(path)
		headState, inHead := headEntries[path]
		switch {
		case !inHead:
			e.IndexStatus = StatusNew
		case se.BlobHash != headState.BlobHash || normalizeFileMode(se.Mode) != headState.Mode:
			e.IndexStatus = StatusModified
		default:
			e.IndexStatus = StatusClean
		}
	}
	for path := range headEntries {
		if _, inStaging := stg.Entries[path]; !inStaging {
			e := entryFor(path)
			e.IndexStatus = StatusDeleted
			if _, onDisk := workFiles[path]; onDisk {
				e.WorkStatus = StatusUntracked
			} else {
				e.WorkStatus = StatusDeleted
			}
		}
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return &StatusReport{Head: head, Entries: entries}, nil
}

const statusRacyCleanWindow = 2 * time.Second

// stagingStatMatchesWorktree reports whether the stat data recorded at add
// time still matches, so the file need not be re-hashed.
func stagingStatMatchesWorktree(se *StagingEntry, info os.FileInfo, workMode string) bool {
	if se == nil || se.ModTime == 0 {
		return false
	}
	if normalizeFileMode(se.Mode) != normalizeFileMode(workMode) {
		return false
	}
	if se.Size != info.Size() {
		return false
	}
	if isRacyCleanModTime(info.ModTime()) {
		return false
	}
	// Coarse (second-level) mtimes can hide same-size edits.
	if info.ModTime().Nanosecond() == 0 {
		return false
	}
	return se.ModTime == info.ModTime().UnixNano()
}

func isRacyCleanModTime(modTime time.Time) bool {
	now := time.Now()
	if modTime.After(now) {
		return true
	}
	return now.Sub(modTime) < statusRacyCleanWindow
}

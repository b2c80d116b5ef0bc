package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// StagingEntry records the staged state of a single file.
type StagingEntry struct {
	Path     string      `json:"path"`
	BlobHash object.Hash `json:"blob_hash"`
	Mode     string      `json:"mode,omitempty"`
	ModTime  int64       `json:"mod_time"`
	Size     int64       `json:"size"`
}

// Staging holds the full staging area (index) for a repository: the exact
// set of paths the next commit's tree will contain.
type Staging struct {
	Entries map[string]*StagingEntry `json:"entries"`
}

func newStaging() *Staging {
	return &Staging{Entries: make(map[string]*StagingEntry)}
}

// Paths returns the staged paths in sorted order.
func (s *Staging) Paths() []string {
	paths := make([]string, 0, len(s.Entries))
	for p := range s.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// indexPath returns the filesystem path to the staging index file.
func (r *Repo) indexPath() string {
	return filepath.Join(r.VcsDir, "index")
}

// ReadStaging loads the staging area from .vcs/index. If the file does not
// exist, an empty Staging is returned (no error).
func (r *Repo) ReadStaging() (*Staging, error) {
	data, err := afero.ReadFile(r.fs, r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newStaging(), nil
		}
		return nil, fmt.Errorf("read staging: %w", err)
	}

	var stg Staging
	if err := json.Unmarshal(data, &stg); err != nil {
		return nil, fmt.Errorf("read staging: unmarshal: %w", err)
	}
	if stg.Entries == nil {
		stg.Entries = make(map[string]*StagingEntry)
	}
	for p, e := range stg.Entries {
		if e == nil || e.Path != p {
			return nil, fmt.Errorf("read staging: %w: entry %q does not match its key", ErrRepositoryInconsistent, p)
		}
	}
	return &stg, nil
}

// WriteStaging atomically writes the staging area to .vcs/index.
func (r *Repo) WriteStaging(s *Staging) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("write staging: marshal: %w", err)
	}
	if err := writeFileAtomic(r.fs, r.indexPath(), data); err != nil {
		return fmt.Errorf("write staging: %w", err)
	}
	r.log.Info("index written", zap.Int("entries", len(s.Entries)))
	return nil
}

// updateStaging runs fn on the current staging area under the index lock
// and persists the result when fn succeeds.
func (r *Repo) updateStaging(fn func(*Staging) error) error {
	return withLock(r.fs, r.indexPath()+".lock", func() error {
		stg, err := r.ReadStaging()
		if err != nil {
			return err
		}
		if err := fn(stg); err != nil {
			return err
		}
		return r.WriteStaging(stg)
	})
}

// Stage stores contents as a blob and records it in the index under path,
// replacing any previous entry. The blob is written before the index so the
// index never names a missing object. An empty mode means a regular file.
func (r *Repo) Stage(path string, contents []byte, mode string) (object.Hash, error) {
	relPath, err := r.stagePath(path)
	if err != nil {
		return "", &PathError{Op: "stage", Path: path, Err: err}
	}

	var blobHash object.Hash
	err = r.updateStaging(func(stg *Staging) error {
		h, err := r.stageContents(stg, relPath, contents, mode, 0)
		blobHash = h
		return err
	})
	if err != nil {
		return "", fmt.Errorf("stage: %w", err)
	}
	return blobHash, nil
}

func (r *Repo) stageContents(stg *Staging, relPath string, contents []byte, mode string, modTime int64) (object.Hash, error) {
	blobHash, err := r.Store.WriteBlob(&object.Blob{Data: contents})
	if err != nil {
		return "", fmt.Errorf("write blob %q: %w", relPath, err)
	}
	stg.Entries[relPath] = &StagingEntry{
		Path:     relPath,
		BlobHash: blobHash,
		Mode:     normalizeFileMode(mode),
		ModTime:  modTime,
		Size:     int64(len(contents)),
	}
	r.log.Debug("staged", zap.String("path", relPath), zap.String("blob", string(blobHash)))
	return blobHash, nil
}

// Add stages the given paths from the working directory. Each path is
// either absolute or relative to the repository root. Directories are
// walked recursively, skipping .vcs/ and paths matched by .vcsignore. The
// index is rewritten once after every file has been stored.
func (r *Repo) Add(paths []string) error {
	err := r.updateStaging(func(stg *Staging) error {
		ic := NewIgnoreChecker(r.fs, r.RootDir)
		for _, p := range paths {
			relPath, err := r.repoRelPath(p)
			if err != nil {
				return &PathError{Op: "add", Path: p, Err: err}
			}
			if err := r.addPath(stg, ic, relPath); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

func (r *Repo) addPath(stg *Staging, ic *IgnoreChecker, relPath string) error {
	absPath := r.absPath(relPath)
	info, err := lstat(r.fs, absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PathError{Op: "add", Path: relPath, Err: ErrFileNotFound}
		}
		return fmt.Errorf("stat %q: %w", relPath, err)
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return &PathError{Op: "add", Path: relPath, Err: ErrNotRegularFile}
		}
		if err := validateStagePath(relPath); err != nil {
			return &PathError{Op: "add", Path: relPath, Err: err}
		}
		return r.addFile(stg, relPath, absPath, info)
	}

	return afero.Walk(r.fs, absPath, func(walkPath string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, walkPath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}
		if err := validateStagePath(rel); err != nil {
			return &PathError{Op: "add", Path: rel, Err: err}
		}
		return r.addFile(stg, rel, walkPath, fi)
	})
}

func (r *Repo) addFile(stg *Staging, relPath, absPath string, info os.FileInfo) error {
	content, err := afero.ReadFile(r.fs, absPath)
	if err != nil {
		return fmt.Errorf("read %q: %w", relPath, err)
	}
	_, err = r.stageContents(stg, relPath, content, modeFromFileInfo(info), info.ModTime().UnixNano())
	return err
}

// Unstage removes path from the index without touching the working
// directory. It fails with ErrPathNotTracked if path is not staged.
func (r *Repo) Unstage(path string) error {
	relPath, err := r.repoRelPath(path)
	if err != nil {
		return &PathError{Op: "unstage", Path: path, Err: err}
	}
	err = r.updateStaging(func(stg *Staging) error {
		if _, ok := stg.Entries[relPath]; !ok {
			return &PathError{Op: "unstage", Path: relPath, Err: ErrPathNotTracked}
		}
		delete(stg.Entries, relPath)
		return nil
	})
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	return nil
}

// Remove implements rm. Each path (a file, or a directory prefix) must be
// staged or tracked by the HEAD commit, otherwise ErrPathNotTracked is
// returned and nothing changes. Matching entries are dropped from the
// index. Files tracked by HEAD are also deleted from the working directory
// unless cached is set; files that were only staged since the last commit
// stay on disk. The index is rewritten before any file is deleted.
func (r *Repo) Remove(paths []string, cached bool) error {
	headFiles, err := r.headTreeEntries()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	var toDelete []string
	err = r.updateStaging(func(stg *Staging) error {
		for _, p := range paths {
			relPath, err := r.repoRelPath(p)
			if err != nil {
				return &PathError{Op: "rm", Path: p, Err: err}
			}
			matched := matchTracked(relPath, stg, headFiles)
			if len(matched) == 0 {
				return &PathError{Op: "rm", Path: relPath, Err: ErrPathNotTracked}
			}
			for _, m := range matched {
				delete(stg.Entries, m)
				if _, inHead := headFiles[m]; inHead && !cached {
					toDelete = append(toDelete, m)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	for _, relPath := range toDelete {
		if err := r.fs.Remove(r.absPath(relPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rm: delete %q: %w", relPath, err)
		}
		r.removeEmptyParents(filepath.Dir(r.absPath(relPath)))
		r.log.Debug("deleted working file", zap.String("path", relPath))
	}
	return nil
}

// matchTracked returns the staged or HEAD-tracked paths equal to relPath or
// below it when relPath names a directory, sorted.
func matchTracked(relPath string, stg *Staging, headFiles map[string]headTreeState) []string {
	seen := make(map[string]struct{})
	consider := func(p string) {
		if relPath == "." || p == relPath || strings.HasPrefix(p, relPath+"/") {
			seen[p] = struct{}{}
		}
	}
	for p := range stg.Entries {
		consider(p)
	}
	for p := range headFiles {
		consider(p)
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// removeEmptyParents deletes now-empty directories between dir and the
// repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for dir != r.RootDir && strings.HasPrefix(dir, r.RootDir) {
		entries, err := afero.ReadDir(r.fs, dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := r.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (r *Repo) absPath(relPath string) string {
	return filepath.Join(r.RootDir, filepath.FromSlash(relPath))
}

// repoRelPath converts an absolute path, or a path relative to the
// repository root, into a clean forward-slash path relative to the root.
// "." names the root itself. Paths that escape the root or point into .vcs/
// fail with ErrPathOutsideRepository.
func (r *Repo) repoRelPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", ErrPathOutsideRepository
	}

	var rel string
	if filepath.IsAbs(p) {
		var err error
		rel, err = filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", ErrPathOutsideRepository
		}
	} else {
		rel = filepath.Clean(p)
	}
	rel = filepath.ToSlash(rel)

	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrPathOutsideRepository
	}
	if rel == DirName || strings.HasPrefix(rel, DirName+"/") {
		return "", ErrPathOutsideRepository
	}
	return rel, nil
}

func (r *Repo) stagePath(p string) (string, error) {
	relPath, err := r.repoRelPath(p)
	if err != nil {
		return "", err
	}
	if err := validateStagePath(relPath); err != nil {
		return "", err
	}
	return relPath, nil
}

// validateStagePath checks that every segment of relPath can be stored as
// a tree entry name.
func validateStagePath(relPath string) error {
	if relPath == "." {
		return fmt.Errorf("%w: the repository root is not a file", object.ErrInvalidTreeEntry)
	}
	for _, seg := range strings.Split(relPath, "/") {
		if err := object.ValidateEntryName(seg); err != nil {
			return err
		}
	}
	return nil
}

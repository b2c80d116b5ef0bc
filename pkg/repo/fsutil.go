package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	lockRetryDelay = 5 * time.Millisecond
	lockWaitLimit  = 2 * time.Second
)

// writeFileAtomic writes data to a temp file next to dest and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(fs afero.Fs, dest string, data []byte) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(dest), "."+filepath.Base(dest)+"-tmp-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("close: %w", err)
	}
	if err := fs.Rename(tmpName, dest); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// acquireLock creates lockPath exclusively, retrying until lockWaitLimit.
func acquireLock(fs afero.Fs, lockPath string) (afero.File, error) {
	deadline := time.Now().Add(lockWaitLimit)
	for {
		f, err := fs.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, os.ErrExist) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(lockRetryDelay)
			continue
		}
		return nil, err
	}
}

// withLock runs fn while holding the advisory lock file lockPath.
func withLock(fs afero.Fs, lockPath string, fn func() error) error {
	f, err := acquireLock(fs, lockPath)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	f.Close()
	defer fs.Remove(lockPath)
	return fn()
}

func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// lstat stats path without following a final symlink when fs supports it.
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if ls, ok := fs.(afero.Lstater); ok {
		info, _, err := ls.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

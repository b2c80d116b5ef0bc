package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func (r *Repo) headPath() string {
	return filepath.Join(r.VcsDir, "HEAD")
}

// Head returns the hash of the current commit, or the empty hash before the
// first commit.
func (r *Repo) Head() (object.Hash, error) {
	h, err := readHeadFile(r.fs, r.headPath())
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	return h, nil
}

func readHeadFile(fs afero.Fs, path string) (object.Hash, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	h := object.Hash(strings.TrimSpace(string(data)))
	if h.IsZero() {
		return "", nil
	}
	if !h.Valid() {
		return "", fmt.Errorf("%w: HEAD holds malformed hash %q", ErrRepositoryInconsistent, h)
	}
	return h, nil
}

// updateHead moves HEAD to h using lockfile + rename atomic semantics. The
// update only succeeds when HEAD still names expectedOld (empty for "no
// commit yet"), so a concurrent commit cannot be silently overwritten.
//
// The HEAD log append happens after the rename; if it fails, HEAD stays
// moved and a HeadUpdateLogError is returned.
func (r *Repo) updateHead(h, expectedOld object.Hash, reason string) error {
	if !r.Store.Has(h) {
		return fmt.Errorf("update HEAD: %w: %s", object.ErrObjectNotFound, h)
	}

	headPath := r.headPath()
	lockPath := headPath + ".lock"
	lockFile, err := acquireLock(r.fs, lockPath)
	if err != nil {
		return fmt.Errorf("update HEAD: lock: %w", err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = r.fs.Remove(lockPath)
		}
	}()

	oldHash, err := readHeadFile(r.fs, headPath)
	if err != nil {
		return fmt.Errorf("update HEAD: read old hash: %w", err)
	}
	if oldHash != expectedOld {
		return fmt.Errorf(
			"update HEAD: %w (expected %s, found %s)",
			ErrHeadCASMismatch,
			displayHash(expectedOld),
			displayHash(oldHash),
		)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update HEAD: write: %w", err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update HEAD: sync: %w", err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update HEAD: close: %w", err)
	}
	lockFile = nil

	if err := r.fs.Rename(lockPath, headPath); err != nil {
		return fmt.Errorf("update HEAD: rename: %w", err)
	}
	cleanupLock = false

	r.log.Info("HEAD moved",
		zap.String("old", displayHash(oldHash)),
		zap.String("new", string(h)),
		zap.String("reason", reason),
	)

	if err := r.appendHeadLog(oldHash, h, reason); err != nil {
		return &HeadUpdateLogError{
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}
	return nil
}

func displayHash(h object.Hash) string {
	if h.IsZero() {
		return string(object.ZeroHash)
	}
	return string(h)
}

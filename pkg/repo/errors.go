package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/vcs/pkg/object"
)

var (
	ErrNotARepository         = errors.New("not a vcs repository (or any parent up to /)")
	ErrAlreadyInitialized     = errors.New("already in a vcs repository")
	ErrPathOutsideRepository  = errors.New("path is outside the repository")
	ErrPathNotTracked         = errors.New("path is neither staged nor tracked")
	ErrFileNotFound           = errors.New("file does not exist")
	ErrNotRegularFile         = errors.New("not a regular file")
	ErrInvalidPathLayout      = errors.New("path is staged both as a file and as a directory")
	ErrNothingToCommit        = errors.New("nothing to commit")
	ErrEmptyMessage           = errors.New("commit message is empty")
	ErrHeadCASMismatch        = errors.New("HEAD compare-and-swap mismatch")
	ErrRepositoryInconsistent = errors.New("repository is inconsistent")

	ErrHeadUpdatedButLogAppendFailed = errors.New("HEAD updated but HEAD log append failed")
)

// PathError records the repository-relative path an operation failed on.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// HeadUpdateLogError indicates the HEAD file update succeeded, but appending
// the corresponding HEAD log entry failed. HEAD already names NewHash.
type HeadUpdateLogError struct {
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *HeadUpdateLogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"%s (old=%s new=%s): %v",
		ErrHeadUpdatedButLogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *HeadUpdateLogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *HeadUpdateLogError) Is(target error) bool {
	return target == ErrHeadUpdatedButLogAppendFailed
}

package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/odvcencio/vcs/pkg/repo"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("open: %w", repo.ErrNotARepository), "Not in an initialized vcs directory."},
		{fmt.Errorf("init: %w at /x", repo.ErrAlreadyInitialized), "Already in a vcs directory."},
		{fmt.Errorf("commit: %w", repo.ErrEmptyMessage), "Please enter a commit message."},
		{fmt.Errorf("commit: %w", repo.ErrNothingToCommit), "No changes added to the commit"},
		{&repo.PathError{Op: "rm", Path: "a", Err: repo.ErrPathNotTracked}, "No reason to remove the file."},
		{&repo.PathError{Op: "add", Path: "a", Err: repo.ErrFileNotFound}, "File does not exist."},
		{&repo.PathError{Op: "add", Path: "link", Err: repo.ErrNotRegularFile}, "File is not a regular file."},
		{&repo.PathError{Op: "add", Path: "../a", Err: repo.ErrPathOutsideRepository}, "Path is outside the repository."},
		{checkOperands(nil, 1, 1), "Incorrect operands."},
		{errors.New("disk on fire"), "disk on fire"},
	}
	for _, tc := range tests {
		if got := userMessage(tc.err); got != tc.want {
			t.Errorf("userMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCheckOperands(t *testing.T) {
	tests := []struct {
		n, lo, hi int
		ok        bool
	}{
		{0, 0, 0, true},
		{1, 0, 0, false},
		{0, 1, 1, false},
		{1, 1, 1, true},
		{2, 1, 1, false},
		{1, 0, 1, true},
		{5, 1, -1, true},
	}
	for _, tc := range tests {
		err := checkOperands(make([]string, tc.n), tc.lo, tc.hi)
		if (err == nil) != tc.ok {
			t.Errorf("checkOperands(n=%d, %d, %d) = %v, want ok=%v", tc.n, tc.lo, tc.hi, err, tc.ok)
		}
		if err != nil && !errors.Is(err, errIncorrectOperands) {
			t.Errorf("checkOperands error %v does not wrap errIncorrectOperands", err)
		}
	}
}

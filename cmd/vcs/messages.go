package main

import (
	"errors"
	"fmt"

	"github.com/odvcencio/vcs/pkg/repo"
)

var errIncorrectOperands = errors.New("incorrect operands")

// userMessages maps error kinds to the fixed lines printed to the user. The
// first match wins, so more specific kinds come first.
var userMessages = []struct {
	kind error
	msg  string
}{
	{errIncorrectOperands, "Incorrect operands."},
	{repo.ErrNotARepository, "Not in an initialized vcs directory."},
	{repo.ErrAlreadyInitialized, "Already in a vcs directory."},
	{repo.ErrEmptyMessage, "Please enter a commit message."},
	{repo.ErrNothingToCommit, "No changes added to the commit"},
	{repo.ErrPathNotTracked, "No reason to remove the file."},
	{repo.ErrFileNotFound, "File does not exist."},
	{repo.ErrNotRegularFile, "File is not a regular file."},
	{repo.ErrPathOutsideRepository, "Path is outside the repository."},
}

// userMessage renders err for the terminal.
func userMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.kind) {
			return m.msg
		}
	}
	return err.Error()
}

// checkOperands reports errIncorrectOperands unless lo <= len(args) <= hi.
// A negative hi means no upper bound.
func checkOperands(args []string, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("%w: got %d", errIncorrectOperands, len(args))
	}
	return nil
}

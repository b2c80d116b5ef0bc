package object

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when no object with the requested hash
	// exists in the store.
	ErrObjectNotFound = errors.New("object not found")

	// ErrCorruptObject is returned when stored bytes do not decode or do not
	// hash back to the id they were stored under.
	ErrCorruptObject = errors.New("corrupt object")

	// ErrTypeMismatch is returned by the typed readers when the stored kind
	// tag differs from the one requested.
	ErrTypeMismatch = fmt.Errorf("type mismatch: %w", ErrCorruptObject)

	// ErrInvalidTreeEntry rejects tree entries that cannot be serialized
	// canonically.
	ErrInvalidTreeEntry = errors.New("invalid tree entry")

	// ErrInvalidCommit rejects commits whose fields would not parse back
	// from their serialized form.
	ErrInvalidCommit = errors.New("invalid commit")
)

package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/odvcencio/vcs/pkg/object"
	"go.uber.org/zap"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

type commitOptions struct {
	author string
	when   time.Time
	signer CommitSigner
}

// CommitOption configures a single Commit call.
type CommitOption func(*commitOptions)

// WithAuthor overrides the commit author.
func WithAuthor(author string) CommitOption {
	return func(o *commitOptions) {
		o.author = strings.TrimSpace(author)
	}
}

// WithTime overrides the commit timestamp.
func WithTime(t time.Time) CommitOption {
	return func(o *commitOptions) {
		o.when = t
	}
}

// WithSigner signs the commit payload before it is stored.
func WithSigner(signer CommitSigner) CommitOption {
	return func(o *commitOptions) {
		o.signer = signer
	}
}

// Commit creates a new commit from the current staging area.
//
//  1. Read staging and the current HEAD (the parent, possibly none)
//  2. BuildTree from staging
//  3. Refuse with ErrNothingToCommit when there is no parent and nothing is
//     staged, or when the tree equals the parent's tree
//  4. Create the CommitObj and write it to the store
//  5. Move HEAD to the new commit, compare-and-swap against the parent
//  6. Return the commit hash
//
// The staging area is left as is: it keeps describing the tree of HEAD.
func (r *Repo) Commit(message string, opts ...CommitOption) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: %w", ErrEmptyMessage)
	}
	o := commitOptions{}
	for _, apply := range opts {
		apply(&o)
	}
	if o.author == "" {
		o.author = r.defaultAuthor()
	}
	if o.when.IsZero() {
		o.when = r.now()
	}
	if err := object.ValidateCommitHeader("author", o.author); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// 1. Read staging and HEAD.
	stg, err := r.ReadStaging()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	parent, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if parent == "" && len(stg.Entries) == 0 {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	// 2. Build tree from staging.
	treeHash, err := r.BuildTree(stg)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// 3. Compare with the parent's tree.
	if parent != "" {
		parentCommit, err := r.Store.ReadCommit(parent)
		if err != nil {
			return "", fmt.Errorf("commit: read parent: %w", err)
		}
		if parentCommit.TreeHash == treeHash {
			return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
		}
	}

	// 4. Create and write the CommitObj.
	commitObj := &object.CommitObj{
		TreeHash:       treeHash,
		Parent:         parent,
		Author:         o.author,
		Timestamp:      o.when.Unix(),
		AuthorTimezone: o.when.Format("-0700"),
		Message:        message,
	}
	if o.signer != nil {
		signature, err := o.signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = strings.TrimSpace(signature)
		if err := object.ValidateCommitHeader("signature", commitObj.Signature); err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	// 5. Move HEAD.
	if err := r.updateHead(commitHash, parent, "commit: "+MessageSummary(message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.log.Info("committed",
		zap.String("commit", string(commitHash)),
		zap.String("tree", string(treeHash)),
		zap.Int("files", len(stg.Entries)),
	)
	return commitHash, nil
}

func (r *Repo) defaultAuthor() string {
	if author := strings.TrimSpace(os.Getenv("VCS_AUTHOR")); author != "" {
		return author
	}
	if r.Config != nil {
		if author := r.Config.Author(); author != "" {
			return author
		}
	}
	if user := strings.TrimSpace(os.Getenv("USER")); user != "" {
		return user
	}
	return "unknown"
}

// MessageSummary returns the first line of a commit message.
func MessageSummary(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return line
}

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// parent links, returning up to limit commits in reverse-chronological
// order (newest first). An empty start means HEAD; a non-positive limit
// means no limit. A parent that is missing or is not a commit is an error
// wrapping ErrRepositoryInconsistent.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	if start == "" {
		head, err := r.Head()
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		start = head
	}

	var entries []LogEntry
	seen := make(map[object.Hash]struct{})
	current := start
	for current != "" && (limit <= 0 || len(entries) < limit) {
		if _, loop := seen[current]; loop {
			return nil, fmt.Errorf("log: %w: cycle at %s", ErrRepositoryInconsistent, current)
		}
		seen[current] = struct{}{}

		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrObjectNotFound) || errors.Is(err, object.ErrCorruptObject) {
				return nil, fmt.Errorf("log: %w: commit %s: %w", ErrRepositoryInconsistent, current, err)
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})
		current = c.Parent
	}
	return entries, nil
}

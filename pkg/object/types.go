package object

import "strings"

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// ZeroHash is written to HEAD before the first commit.
const ZeroHash Hash = "0000000000000000000000000000000000000000000000000000000000000000"

// Short returns the first 8 characters of h for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// Valid reports whether h is a well-formed lowercase hex digest.
func (h Hash) Valid() bool {
	if len(h) != len(ZeroHash) {
		return false
	}
	return strings.IndexFunc(string(h), func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	}) < 0
}

// IsZero reports whether h is empty or the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == "" || h == ZeroHash
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

func (t ObjectType) known() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Hash names a blob for files and
// a tree for directories.
type TreeEntry struct {
	Name  string
	IsDir bool
	Mode  string
	Hash  Hash
}

// Kind returns the object type the entry points at.
func (e TreeEntry) Kind() ObjectType {
	if e.IsDir {
		return TypeTree
	}
	return TypeBlob
}

// TreeObj holds a sorted list of tree entries.
type TreeObj struct {
	Entries []TreeEntry // sorted by Name
}

// CommitObj represents a commit pointing to a tree with metadata. Parent is
// empty for the first commit in a repository.
type CommitObj struct {
	TreeHash       Hash
	Parent         Hash
	Author         string
	Timestamp      int64
	AuthorTimezone string
	Signature      string
	Message        string
}

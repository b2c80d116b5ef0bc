package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// ValidateEntryName reports whether name can appear in a tree entry.
func ValidateEntryName(name string) error {
	switch name {
	case "", ".", "..":
		return fmt.Errorf("%w: name %q", ErrInvalidTreeEntry, name)
	}
	if strings.ContainsAny(name, "/\n\t\x00") {
		return fmt.Errorf("%w: name %q contains a reserved character", ErrInvalidTreeEntry, name)
	}
	return nil
}

// ValidateTree checks every entry name and rejects duplicates.
func ValidateTree(tr *TreeObj) error {
	seen := make(map[string]struct{}, len(tr.Entries))
	for _, e := range tr.Entries {
		if err := ValidateEntryName(e.Name); err != nil {
			return err
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidTreeEntry, e.Name)
		}
		seen[e.Name] = struct{}{}
		if !e.Hash.Valid() {
			return fmt.Errorf("%w: %q has malformed hash %q", ErrInvalidTreeEntry, e.Name, e.Hash)
		}
	}
	return nil
}

// MarshalTree serializes a TreeObj. Entries are sorted byte-wise by Name so
// identical directory states always produce identical bytes. Each entry is
// one line:
//
//	mode kind hash<TAB>name
//
// An empty tree serializes to zero bytes.
func MarshalTree(tr *TreeObj) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s %s %s\t%s\n", treeModeOrDefault(e), e.Kind(), e.Hash, e.Name)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	text := string(data)
	if text == "" {
		return tr, nil
	}
	if !strings.HasSuffix(text, "\n") {
		return nil, fmt.Errorf("unmarshal tree: missing trailing newline")
	}
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		parts := strings.Split(meta, " ")
		if len(parts) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		isDir, mode, err := parseTreeMode(parts[0])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		entry := TreeEntry{
			Name:  name,
			IsDir: isDir,
			Mode:  mode,
			Hash:  Hash(parts[2]),
		}
		if kind := ObjectType(parts[1]); kind != entry.Kind() {
			return nil, fmt.Errorf("unmarshal tree: entry %q: mode %s does not match kind %q", name, mode, kind)
		}
		tr.Entries = append(tr.Entries, entry)
	}
	if err := ValidateTree(tr); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	return tr, nil
}

func treeModeOrDefault(e TreeEntry) string {
	if e.IsDir {
		return TreeModeDir
	}
	if strings.TrimSpace(e.Mode) == "" {
		return TreeModeFile
	}
	return e.Mode
}

func parseTreeMode(mode string) (bool, string, error) {
	switch mode {
	case TreeModeDir:
		return true, TreeModeDir, nil
	case TreeModeFile:
		return false, TreeModeFile, nil
	case TreeModeExecutable:
		return false, TreeModeExecutable, nil
	default:
		return false, "", fmt.Errorf("unknown mode %q", mode)
	}
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// ValidateCommitHeader reports an error wrapping ErrInvalidCommit if value
// cannot be carried on a single commit header line.
func ValidateCommitHeader(field, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: %s contains a line break", ErrInvalidCommit, field)
	}
	return nil
}

// ValidateCommit checks that c serializes to bytes UnmarshalCommit accepts.
func ValidateCommit(c *CommitObj) error {
	if !c.TreeHash.Valid() {
		return fmt.Errorf("%w: malformed tree hash %q", ErrInvalidCommit, c.TreeHash)
	}
	if !c.Parent.IsZero() && !c.Parent.Valid() {
		return fmt.Errorf("%w: malformed parent hash %q", ErrInvalidCommit, c.Parent)
	}
	for _, h := range []struct{ field, value string }{
		{"author", c.Author},
		{"timezone", c.AuthorTimezone},
		{"signature", c.Signature},
	} {
		if err := ValidateCommitHeader(h.field, h.value); err != nil {
			return err
		}
	}
	if strings.ContainsAny(strings.TrimSpace(c.AuthorTimezone), " \t") {
		return fmt.Errorf("%w: malformed timezone %q", ErrInvalidCommit, c.AuthorTimezone)
	}
	return nil
}

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (omitted for the first commit)
//	author A
//	timestamp T Z
//	signature S  (optional)
//
//	message
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	if !c.Parent.IsZero() {
		fmt.Fprintf(&buf, "parent %s\n", string(c.Parent))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	if tz := strings.TrimSpace(c.AuthorTimezone); tz != "" {
		fmt.Fprintf(&buf, "timestamp %d %s\n", c.Timestamp, tz)
	} else {
		fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	}
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			if c.Parent != "" {
				return nil, fmt.Errorf("unmarshal commit: more than one parent")
			}
			c.Parent = Hash(val)
		case "author":
			c.Author = val
		case "timestamp":
			tsText, tz, _ := strings.Cut(val, " ")
			ts, err := strconv.ParseInt(tsText, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: bad timestamp %q: %w", val, err)
			}
			c.Timestamp = ts
			c.AuthorTimezone = tz
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q", key)
		}
	}
	if !c.TreeHash.Valid() {
		return nil, fmt.Errorf("unmarshal commit: malformed tree hash %q", c.TreeHash)
	}
	if c.Parent != "" && !c.Parent.Valid() {
		return nil, fmt.Errorf("unmarshal commit: malformed parent hash %q", c.Parent)
	}
	return c, nil
}

// referencedHashes lists the ids an object points at, children first in
// the order they appear.
func referencedHashes(objType ObjectType, data []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		commit, err := UnmarshalCommit(data)
		if err != nil {
			return nil, err
		}
		refs := []Hash{commit.TreeHash}
		if commit.Parent != "" {
			refs = append(refs, commit.Parent)
		}
		return refs, nil
	case TypeTree:
		tree, err := UnmarshalTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}

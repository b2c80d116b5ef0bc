package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	fs          afero.Fs
	root        string
	compression Compression
	verify      bool
	log         *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCompression sets the encoding used for newly written objects.
func WithCompression(c Compression) StoreOption {
	return func(s *Store) {
		s.compression = c
	}
}

// WithVerify toggles re-hashing of object content on every read.
func WithVerify(verify bool) StoreOption {
	return func(s *Store) {
		s.verify = verify
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates a Store rooted at the given directory of fs. The objects/
// subdirectory is created lazily on first write. A nil fs means the OS
// filesystem.
func NewStore(fs afero.Fs, root string, opts ...StoreOption) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{
		fs:          fs,
		root:        root,
		compression: CompressionNone,
		verify:      true,
		log:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.objectsDir(), string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	info, err := s.fs.Stat(s.objectPath(h))
	return err == nil && !info.IsDir()
}

// Write stores an object and returns its content hash. The on-disk format
// is "type len\0content", zstd-compressed when the store is configured to.
// Writes are atomic: data is written to a temp file and then renamed into
// place. Writing content that is already present is a no-op.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if !objType.known() {
		return "", fmt.Errorf("object write: unknown type %q", objType)
	}
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		s.log.Debug("object exists", zap.String("hash", string(h)), zap.String("type", string(objType)))
		return h, nil
	}

	raw := makeObjectEnvelope(objType, data)
	if s.compression == CompressionZstd {
		compressed, err := compressZstd(raw)
		if err != nil {
			return "", fmt.Errorf("object write compress: %w", err)
		}
		raw = compressed
	}

	dir := filepath.Join(s.objectsDir(), string(h[:2]))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.objectPath(h)); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	s.log.Debug("object written",
		zap.String("hash", string(h)),
		zap.String("type", string(objType)),
		zap.Int("size", len(data)),
		zap.String("compression", string(s.compression)),
	)
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content. A
// missing object yields ErrObjectNotFound; bytes that do not parse, or that
// hash to a different id when verification is on, yield ErrCorruptObject.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrObjectNotFound)
	}
	raw, err := afero.ReadFile(s.fs, s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}

	objType, content, err := parseEnvelope(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	if s.verify {
		if actual := HashObject(objType, content); actual != h {
			return "", nil, fmt.Errorf("object read %s: %w: hash mismatch (computed %s)", h, ErrCorruptObject, actual)
		}
	}
	return objType, content, nil
}

func parseEnvelope(raw []byte) (ObjectType, []byte, error) {
	if isZstdFrame(raw) {
		plain, err := decompressZstd(raw)
		if err != nil {
			return "", nil, fmt.Errorf("%w: decompress: %v", ErrCorruptObject, err)
		}
		raw = plain
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("%w: invalid format (no NUL)", ErrCorruptObject)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typeText, lengthText, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid header %q", ErrCorruptObject, header)
	}
	objType := ObjectType(typeText)
	if !objType.known() {
		return "", nil, fmt.Errorf("%w: unknown type %q", ErrCorruptObject, typeText)
	}
	length, err := strconv.Atoi(lengthText)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrCorruptObject, lengthText)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrCorruptObject, length, len(content))
	}
	return objType, content, nil
}

// List returns the hashes of every stored object in sorted order.
func (s *Store) List() ([]Hash, error) {
	fanouts, err := afero.ReadDir(s.fs, s.objectsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list objects: %w", err)
	}

	var hashes []Hash
	for _, fanout := range fanouts {
		if !fanout.IsDir() || !isHexHashComponent(fanout.Name(), 2) {
			continue
		}
		entries, err := afero.ReadDir(s.fs, filepath.Join(s.objectsDir(), fanout.Name()))
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", fanout.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isHexHashComponent(entry.Name(), len(ZeroHash)-2) {
				continue
			}
			hashes = append(hashes, Hash(fanout.Name()+entry.Name()))
		}
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	if len(s) != expectedLen {
		return false
	}
	return Hash(strings.Repeat("0", len(ZeroHash)-expectedLen) + s).Valid()
}

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	Objects int
	ByType  map[ObjectType]int
}

// Verify re-reads every stored object and checks that it parses and hashes
// back to its id, regardless of the store's read-verification setting.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}
	report := &VerifySummary{ByType: make(map[ObjectType]int)}
	for _, h := range hashes {
		raw, err := afero.ReadFile(s.fs, s.objectPath(h))
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		objType, content, err := parseEnvelope(raw)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		if actual := HashObject(objType, content); actual != h {
			return nil, fmt.Errorf("verify %s: %w: hash mismatch (computed %s)", h, ErrCorruptObject, actual)
		}
		if _, err := referencedHashes(objType, content); err != nil {
			return nil, fmt.Errorf("verify %s: %w: %v", h, ErrCorruptObject, err)
		}
		report.Objects++
		report.ByType[objType]++
	}
	return report, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree validates, serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	if err := ValidateTree(tr); err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w: %v", h, ErrCorruptObject, err)
	}
	return tr, nil
}

// WriteCommit validates, serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	if err := ValidateCommit(c); err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w: %v", h, ErrCorruptObject, err)
	}
	return c, nil
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, want)
	}
	return data, nil
}

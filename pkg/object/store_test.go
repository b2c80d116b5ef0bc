package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWriteReadBlob(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	data := []byte("hello, world\n")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != HashObject(TypeBlob, data) {
		t.Fatalf("Write returned %s, want content hash", h)
	}
	if !s.Has(h) {
		t.Fatal("Has returned false after Write")
	}

	objType, got, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if objType != TypeBlob {
		t.Errorf("type = %q, want %q", objType, TypeBlob)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("data = %q, want %q", got, data)
	}
}

func TestStoreFanoutLayout(t *testing.T) {
	root := t.TempDir()
	s := NewStore(nil, root)

	h, err := s.Write(TypeBlob, []byte("layout"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(root, "objects", string(h[:2]), string(h[2:]))
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("object file missing at %s: %v", path, err)
	}
	if want := "blob 6\x00layout"; string(raw) != want {
		t.Errorf("on-disk bytes = %q, want %q", raw, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestStoreWriteIsIdempotent(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	h1, err := s.Write(TypeBlob, []byte("same"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("same"))
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashes differ: %s vs %s", h1, h2)
	}
	hashes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("List = %d objects, want 1", len(hashes))
	}
}

func TestStoreSameBytesDifferentTypes(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	blob, err := s.Write(TypeBlob, nil)
	if err != nil {
		t.Fatalf("Write blob: %v", err)
	}
	tree, err := s.Write(TypeTree, nil)
	if err != nil {
		t.Fatalf("Write tree: %v", err)
	}
	if blob == tree {
		t.Fatal("empty blob and empty tree share an id")
	}
}

func TestStoreReadNotFound(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	_, _, err := s.Read(HashObject(TypeBlob, []byte("never written")))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Read missing: err = %v, want ErrObjectNotFound", err)
	}
	if _, _, err := s.Read("not-a-hash"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Read malformed: err = %v, want ErrObjectNotFound", err)
	}
}

func TestStoreDetectsTampering(t *testing.T) {
	root := t.TempDir()
	s := NewStore(nil, root)

	h, err := s.Write(TypeBlob, []byte("original"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := s.objectPath(h)
	if err := os.WriteFile(path, []byte("blob 8\x00tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, _, err := s.Read(h); !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("Read tampered: err = %v, want ErrCorruptObject", err)
	}
	if _, err := s.Verify(); !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("Verify tampered: err = %v, want ErrCorruptObject", err)
	}

	// Without read verification the tampered bytes come back as-is.
	lax := NewStore(nil, root, WithVerify(false))
	_, got, err := lax.Read(h)
	if err != nil {
		t.Fatalf("unverified Read: %v", err)
	}
	if string(got) != "tampered" {
		t.Fatalf("unverified Read = %q", got)
	}
}

func TestStoreDetectsMalformedEnvelope(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	h, err := s.Write(TypeBlob, []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	cases := map[string]string{
		"no nul":          "blob 1x",
		"unknown type":    "tag 1\x00x",
		"length mismatch": "blob 9\x00x",
		"bad length":      "blob one\x00x",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(s.objectPath(h), []byte(raw), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, _, err := s.Read(h); !errors.Is(err, ErrCorruptObject) {
				t.Fatalf("Read = %v, want ErrCorruptObject", err)
			}
		})
	}
}

func TestStoreWriteUnknownType(t *testing.T) {
	s := NewStore(nil, t.TempDir())
	if _, err := s.Write(ObjectType("tag"), []byte("x")); err == nil {
		t.Fatal("Write with unknown type succeeded")
	}
}

func TestStoreTypedHelpers(t *testing.T) {
	s := NewStore(nil, t.TempDir())

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	treeHash, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, Hash: blobHash},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	commitHash, err := s.WriteCommit(&CommitObj{
		TreeHash:  treeHash,
		Author:    "tester",
		Timestamp: 42,
		Message:   "msg",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	blob, err := s.ReadBlob(blobHash)
	if err != nil || string(blob.Data) != "content" {
		t.Fatalf("ReadBlob = %v, %v", blob, err)
	}
	tree, err := s.ReadTree(treeHash)
	if err != nil || len(tree.Entries) != 1 || tree.Entries[0].Hash != blobHash {
		t.Fatalf("ReadTree = %+v, %v", tree, err)
	}
	commit, err := s.ReadCommit(commitHash)
	if err != nil || commit.TreeHash != treeHash || commit.Message != "msg" {
		t.Fatalf("ReadCommit = %+v, %v", commit, err)
	}

	if _, err := s.ReadTree(blobHash); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("ReadTree(blob) err = %v, want ErrTypeMismatch", err)
	}
	if _, err := s.ReadCommit(treeHash); !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("ReadCommit(tree) err = %v, want a corrupt-object error", err)
	}
}

func TestStoreWriteTreeRejectsInvalidEntries(t *testing.T) {
	s := NewStore(nil, t.TempDir())
	_, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{{Name: "../up", Hash: testHash("x")}}})
	if !errors.Is(err, ErrInvalidTreeEntry) {
		t.Fatalf("WriteTree err = %v, want ErrInvalidTreeEntry", err)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{in: "", want: CompressionNone},
		{in: "none", want: CompressionNone},
		{in: "zstd", want: CompressionZstd},
		{in: "gzip", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseCompression(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseCompression(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCompression(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStoreInMemory(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/repo/.vcs")

	h, err := s.Write(TypeBlob, []byte("in memory"))
	require.NoError(t, err)
	assert.True(t, s.Has(h))

	exists, err := afero.Exists(fs, filepath.Join("/repo/.vcs/objects", string(h[:2]), string(h[2:])))
	require.NoError(t, err)
	assert.True(t, exists)

	objType, data, err := s.Read(h)
	require.NoError(t, err)
	assert.Equal(t, TypeBlob, objType)
	assert.Equal(t, "in memory", string(data))

	hashes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []Hash{h}, hashes)
}

func TestStoreZstdSharesIDsWithPlain(t *testing.T) {
	fs := afero.NewMemMapFs()
	plain := NewStore(fs, "/plain")
	packed := NewStore(fs, "/packed", WithCompression(CompressionZstd))

	data := bytes.Repeat([]byte("compressible "), 200)
	hPlain, err := plain.Write(TypeBlob, data)
	require.NoError(t, err)
	hPacked, err := packed.Write(TypeBlob, data)
	require.NoError(t, err)
	assert.Equal(t, hPlain, hPacked, "compression must not change object ids")

	raw, err := afero.ReadFile(fs, packed.objectPath(hPacked))
	require.NoError(t, err)
	assert.True(t, isZstdFrame(raw))
	assert.Less(t, len(raw), len(data))

	_, got, err := packed.Read(hPacked)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStoreReadsMixedEncodings(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/repo")
	plainHash, err := s.Write(TypeBlob, []byte("plain"))
	require.NoError(t, err)

	// Reopen with compression on; older plain objects remain readable.
	z := NewStore(fs, "/repo", WithCompression(CompressionZstd))
	zHash, err := z.Write(TypeBlob, []byte("zstd"))
	require.NoError(t, err)

	for _, h := range []Hash{plainHash, zHash} {
		_, _, err := s.Read(h)
		assert.NoError(t, err)
		_, _, err = z.Read(h)
		assert.NoError(t, err)
	}

	summary, err := z.Verify()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Objects)
	assert.Equal(t, 2, summary.ByType[TypeBlob])
}

func TestStoreListIgnoresForeignFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/repo")
	h, err := s.Write(TypeBlob, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, fs.MkdirAll("/repo/objects/zz", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/repo/objects/zz/not-an-object", []byte("junk"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/repo/objects", string(h[:2]), ".tmp-123"), []byte("junk"), 0o644))

	hashes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []Hash{h}, hashes)
}

func TestStoreListEmpty(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "/nothing")
	hashes, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Init creates a new repository at path. It creates the .vcs/ directory
// structure: HEAD (no commit yet), an empty index, objects/, logs/ and the
// default config. If path or any of its parents already holds a .vcs/
// directory, Init returns ErrAlreadyInitialized and changes nothing.
func Init(path string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}

	if root, err := FindRoot(o.fs, abs); err == nil {
		return nil, fmt.Errorf("init: %w at %s", ErrAlreadyInitialized, filepath.Join(root, DirName))
	} else if !errors.Is(err, ErrNotARepository) {
		return nil, fmt.Errorf("init: %w", err)
	}

	if err := o.fs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir %s: %w", abs, err)
	}
	vcsDir := filepath.Join(abs, DirName)
	// Mkdir, not MkdirAll: a concurrent init must lose here.
	if err := o.fs.Mkdir(vcsDir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("init: %w at %s", ErrAlreadyInitialized, vcsDir)
		}
		return nil, fmt.Errorf("init: mkdir %s: %w", vcsDir, err)
	}

	dirs := []string{
		filepath.Join(vcsDir, "objects"),
		filepath.Join(vcsDir, "logs"),
	}
	for _, d := range dirs {
		if err := o.fs.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	cfg := DefaultConfig()
	if err := writeConfig(o.fs, vcsDir, cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r := newRepo(abs, cfg, o)
	if err := writeFileAtomic(o.fs, r.headPath(), []byte(string(object.ZeroHash)+"\n")); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}
	if err := r.WriteStaging(newStaging()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.log.Info("initialized repository", zap.String("dir", vcsDir))
	return r, nil
}

// FindRoot searches upward from start for a directory containing .vcs/ and
// returns it. It returns ErrNotARepository when the filesystem root is
// reached without finding one. A nil fs means the OS filesystem.
func FindRoot(fs afero.Fs, start string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("find root: abs path: %w", err)
	}

	cur := abs
	for {
		if dirExists(fs, filepath.Join(cur, DirName)) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ErrNotARepository
		}
		cur = parent
	}
}

// Open locates the repository containing path with FindRoot and opens it.
func Open(path string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)

	root, err := FindRoot(o.fs, path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	cfg, err := readConfig(o.fs, filepath.Join(root, DirName))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return newRepo(root, cfg, o), nil
}

package repo

import (
	"path/filepath"
	"time"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DirName is the repository marker directory created at the root.
const DirName = ".vcs"

// Repo represents an opened vcs repository.
type Repo struct {
	RootDir string        // working directory root
	VcsDir  string        // .vcs/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	fs  afero.Fs
	log *zap.Logger
	now func() time.Time
}

type options struct {
	fs  afero.Fs
	log *zap.Logger
	now func() time.Time
}

// Option configures how a repository is opened or created.
type Option func(*options)

// WithFs runs every repository operation against fs instead of the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithLogger sets the logger for the repository and its object store.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source used for commit and HEAD log
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		fs:  afero.NewOsFs(),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

func newRepo(root string, cfg *Config, o options) *Repo {
	vcsDir := filepath.Join(root, DirName)
	log := o.log.With(zap.String("repo", root))
	return &Repo{
		RootDir: root,
		VcsDir:  vcsDir,
		Store: object.NewStore(o.fs, vcsDir,
			object.WithCompression(cfg.compression()),
			object.WithVerify(cfg.Core.verifyObjects()),
			object.WithLogger(log),
		),
		Config: cfg,
		fs:     o.fs,
		log:    log,
		now:    o.now,
	}
}

// Fs returns the filesystem the repository reads and writes through.
func (r *Repo) Fs() afero.Fs {
	return r.fs
}

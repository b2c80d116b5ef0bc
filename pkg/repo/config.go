package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
)

// ConfigFileName is the repository config file inside .vcs/.
const ConfigFileName = "config.toml"

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig identifies the default commit author.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// CoreConfig controls object storage.
type CoreConfig struct {
	Compression   string `toml:"compression"`
	VerifyObjects *bool  `toml:"verify_objects,omitempty"`
}

func (c CoreConfig) verifyObjects() bool {
	return c.VerifyObjects == nil || *c.VerifyObjects
}

// DefaultConfig is written by Init.
func DefaultConfig() *Config {
	verify := true
	return &Config{
		Core: CoreConfig{
			Compression:   string(object.CompressionNone),
			VerifyObjects: &verify,
		},
	}
}

func (c *Config) compression() object.Compression {
	comp, err := object.ParseCompression(c.Core.Compression)
	if err != nil {
		return object.CompressionNone
	}
	return comp
}

// Author formats the configured identity as "name <email>", or returns the
// empty string when no name is set.
func (c *Config) Author() string {
	name := strings.TrimSpace(c.User.Name)
	if name == "" {
		return ""
	}
	if email := strings.TrimSpace(c.User.Email); email != "" {
		return fmt.Sprintf("%s <%s>", name, email)
	}
	return name
}

func (c *Config) validate() error {
	if _, err := object.ParseCompression(c.Core.Compression); err != nil {
		return fmt.Errorf("core.compression: %w", err)
	}
	return nil
}

func configPath(vcsDir string) string {
	return filepath.Join(vcsDir, ConfigFileName)
}

// readConfig reads .vcs/config.toml. Missing config returns DefaultConfig.
func readConfig(fs afero.Fs, vcsDir string) (*Config, error) {
	data, err := afero.ReadFile(fs, configPath(vcsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func writeConfig(fs afero.Fs, vcsDir string, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(fs, configPath(vcsDir), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteConfig atomically replaces .vcs/config.toml. The new settings apply
// to repositories opened afterwards.
func (r *Repo) WriteConfig(cfg *Config) error {
	return writeConfig(r.fs, r.VcsDir, cfg)
}

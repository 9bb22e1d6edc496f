// Package config loads the persisted joist configuration: package store
// location, provider list, dependency policy, and worker limits. The
// file is TOML; every field has a usable default so a missing file is
// not an error.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/joist-el/joist/pkg/errors"
)

// Duration is a time.Duration that unmarshals from a TOML string such
// as "15m" or "1h30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ProviderConfig describes one entry of the ordered provider list.
type ProviderConfig struct {
	Name string   `toml:"name"`
	Type string   `toml:"type"` // "file" or "http"
	Path string   `toml:"path"` // file provider: catalog path
	URL  string   `toml:"url"`  // http provider: catalog URL
	TTL  Duration `toml:"ttl"`  // http provider: cache lifetime
}

// Config is the persisted configuration.
type Config struct {
	// Store is the directory package repositories are cloned into.
	Store string `toml:"store"`

	// Protocol is the default transfer protocol for recipes that do not
	// specify one.
	Protocol string `toml:"protocol"`

	// Timeout bounds each fetch worker.
	Timeout Duration `toml:"timeout"`

	// Emacs is the host runtime binary consulted for version detection.
	Emacs string `toml:"emacs"`

	// EmacsVersion, when set, overrides detection.
	EmacsVersion string `toml:"emacs-version"`

	// Ignore lists packages never fetched as dependencies.
	Ignore []string `toml:"ignore"`

	// Pins maps package names to refs, applied over every resolved
	// recipe.
	Pins map[string]string `toml:"pins"`

	// Providers is the ordered recipe source list; earlier entries win.
	Providers []ProviderConfig `toml:"providers"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store:    "~/.emacs.d/joist/repos",
		Protocol: "https",
		Timeout:  Duration(15 * time.Minute),
		Emacs:    "emacs",
	}
}

// DefaultPath returns the standard config file location,
// ~/.config/joist/config.toml on most systems.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locating config directory")
	}
	return filepath.Join(dir, "joist", "config.toml"), nil
}

// Load reads the config file at path, layering it over the defaults. A
// missing file yields the defaults. Path may be empty to use
// DefaultPath.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "loading config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"config %s has unknown keys: %v", path, undecoded)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "config %s: provider with no name", path)
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "config %s: duplicate provider %q", path, p.Name)
		}
		seen[p.Name] = true
		switch p.Type {
		case "file":
			if p.Path == "" {
				return errors.New(errors.ErrCodeInvalidInput,
					"config %s: file provider %q has no path", path, p.Name)
			}
		case "http":
			if p.URL == "" {
				return errors.New(errors.ErrCodeInvalidInput,
					"config %s: http provider %q has no url", path, p.Name)
			}
		default:
			return errors.New(errors.ErrCodeInvalidInput,
				"config %s: provider %q has unknown type %q", path, p.Name, p.Type)
		}
	}
	return nil
}

// StorePath returns the package store with a leading ~ expanded.
func (c *Config) StorePath() (string, error) {
	return ExpandHome(c.Store)
}

// IgnoreSet returns the ignore list as a set.
func (c *Config) IgnoreSet() map[string]bool {
	set := make(map[string]bool, len(c.Ignore))
	for _, pkg := range c.Ignore {
		set[pkg] = true
	}
	return set
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "locating home directory")
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/thumbcache/internal/core/domain"
	"github.com/custodia-labs/thumbcache/internal/thumbnailers/command"
)

// Config is the on-disk configuration. Every field is optional; the
// zero value is a fully working setup using the standard cache root and
// the built-in image decoder only.
type Config struct {
	// CacheRoot overrides the cache directory. Empty selects the
	// standard location under $XDG_CACHE_HOME.
	CacheRoot string `toml:"cache_root"`

	// Verbose enables debug logging.
	Verbose bool `toml:"verbose"`

	// Thumbnailers declares external tools, tried in file order after
	// the built-in decoder.
	Thumbnailers []Thumbnailer `toml:"thumbnailer"`
}

// Thumbnailer is one [[thumbnailer]] table in the config file.
type Thumbnailer struct {
	Name       string   `toml:"name"`
	Exec       string   `toml:"exec"`
	MIMETypes  []string `toml:"mime_types"`
	Categories []string `toml:"categories"`
}

// DefaultPath resolves the standard config file location.
// XDG_CONFIG_HOME overrides the parent directory.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(filepath.Clean(xdg), "thumbcache", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Join(home, ".config", "thumbcache", "config.toml"), nil
}

// Load reads the config file at path. An empty path selects the
// standard location. A missing file is not an error: the zero config
// is returned.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Descriptors converts the declared thumbnailer tables into backend
// descriptors. A table with no name or no command template is rejected;
// unknown category tags are rejected rather than silently dropped.
func (c *Config) Descriptors() ([]command.Descriptor, error) {
	descs := make([]command.Descriptor, 0, len(c.Thumbnailers))
	for _, t := range c.Thumbnailers {
		if t.Name == "" || t.Exec == "" {
			return nil, fmt.Errorf("%w: thumbnailer entries need both name and exec", domain.ErrInvalidInput)
		}

		var cats []domain.Category
		for _, raw := range t.Categories {
			cat, err := domain.ParseCategory(raw)
			if err != nil {
				return nil, fmt.Errorf("thumbnailer %s: %w", t.Name, err)
			}
			cats = append(cats, cat)
		}

		descs = append(descs, command.Descriptor{
			Name:       t.Name,
			Exec:       t.Exec,
			MIMETypes:  t.MIMETypes,
			Categories: cats,
		})
	}
	return descs, nil
}

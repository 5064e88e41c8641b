package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides config file discovery.
const EnvConfigPath = "WSLKIT_CONFIG"

// candidateNames are tried in order inside the config directory.
var candidateNames = []string{"config.yaml", "config.yml", "config.toml"}

// Loader reads the optional config file and merges it over defaults.
type Loader struct {
	paths  Paths
	getenv func(string) string
}

// NewLoader creates a Loader for the XDG locations and process environment.
func NewLoader() *Loader {
	return &Loader{paths: DefaultPaths(), getenv: os.Getenv}
}

// WithPaths returns a copy of the Loader using paths.
func (l *Loader) WithPaths(paths Paths) *Loader {
	c := *l
	c.paths = paths
	return &c
}

// WithGetenv returns a copy of the Loader reading the environment through getenv.
func (l *Loader) WithGetenv(getenv func(string) string) *Loader {
	c := *l
	c.getenv = getenv
	return &c
}

// Discover returns the config file to load, or "" if there is none.
// An explicit WSLKIT_CONFIG is returned even if it does not exist, so
// that Load can report it.
func (l *Loader) Discover() string {
	if p := l.getenv(EnvConfigPath); p != "" {
		return p
	}
	for _, name := range candidateNames {
		p := filepath.Join(l.paths.ConfigDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load returns the defaults merged with the discovered config file.
func (l *Loader) Load() (*Config, error) {
	cfg := Default(l.paths)

	path := l.Discover()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, NewUserError(ErrCodeConfigNotFound, "cannot read configuration file").
			WithContext(path).
			WithUnderlying(err)
	}

	if err := Decode(path, data, cfg); err != nil {
		return nil, err
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, choosing the format by extension.
// Keys absent from data keep the values already in cfg.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return NewConfigParseError(path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return NewConfigParseError(path, err)
		}
	default:
		return NewConfigFormatError(path)
	}
	return nil
}

// Package config provides repo-specific defaults for agent-commander.
//
// agent-commander looks for .agent-commander.yaml (or .agent-commander.toml)
// in the working directory. Values found there fill in flags the user did
// not set on the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	yamlFilename = ".agent-commander.yaml"
	tomlFilename = ".agent-commander.toml"
)

// ErrInvalid is returned for a config file with out-of-range values.
var ErrInvalid = errors.New("invalid config")

// ToolConfig holds per-tool overrides.
type ToolConfig struct {
	Model string `yaml:"model" toml:"model"`
}

// RepoConfig holds repo-specific agent-commander configuration.
type RepoConfig struct {
	// Tool is the default agent CLI.
	Tool string `yaml:"tool" toml:"tool"`

	// Model is the default model for any tool without its own override.
	Model string `yaml:"model" toml:"model"`

	// Isolation is the default isolation mode: none, screen or docker.
	Isolation string `yaml:"isolation" toml:"isolation"`

	// JSON turns on JSON output mode by default.
	JSON bool `yaml:"json" toml:"json"`

	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// SessionDir is where detached sessions are recorded.
	SessionDir string `yaml:"session_dir" toml:"session_dir"`

	// ContainerImage replaces the default image for docker isolation.
	ContainerImage string `yaml:"container_image" toml:"container_image"`

	Tools map[string]ToolConfig `yaml:"tools" toml:"tools"`
}

// ModelFor returns the configured model for tool, falling back to Model.
func (c RepoConfig) ModelFor(tool string) string {
	if tc, ok := c.Tools[tool]; ok && tc.Model != "" {
		return tc.Model
	}
	return c.Model
}

// Load reads .agent-commander.yaml, or failing that .agent-commander.toml,
// from dir. Returns a zero-value RepoConfig (not an error) if neither
// exists.
func Load(dir string) (RepoConfig, error) {
	for _, name := range []string{yamlFilename, tomlFilename} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return RepoConfig{}, err
		}
		return LoadFile(path)
	}
	return RepoConfig{}, nil
}

// LoadFile reads a config file, choosing the format by extension.
func LoadFile(path string) (RepoConfig, error) {
	var cfg RepoConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return RepoConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return RepoConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return RepoConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return RepoConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c RepoConfig) Validate() error {
	switch c.Isolation {
	case "", "none", "screen", "docker":
	default:
		return fmt.Errorf("%w: isolation must be one of none, screen, docker (got %q)", ErrInvalid, c.Isolation)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json (got %q)", ErrInvalid, c.LogFormat)
	}
	return nil
}

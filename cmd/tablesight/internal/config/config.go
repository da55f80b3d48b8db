// Package config loads the tablesight CLI configuration.
//
// Settings live in os.UserConfigDir()/tablesight/config.yaml:
//
//	~/Library/Application Support/tablesight/config.yaml   (macOS)
//	~/.config/tablesight/config.yaml                       (Linux)
//	%AppData%/tablesight/config.yaml                       (Windows)
//
// The API key is never stored in the file; it comes from the GEMINI_API_KEY
// environment variable. A missing key is a fatal configuration error for
// commands that talk to the service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	appDir     = "tablesight"
	configFile = "config.yaml"

	// EnvAPIKey is the environment variable holding the API key.
	EnvAPIKey = "GEMINI_API_KEY"
)

// ErrMissingAPIKey reports an absent GEMINI_API_KEY.
var ErrMissingAPIKey = errors.New("config: GEMINI_API_KEY is not set")

// Config is the config.yaml schema plus the environment-provided key.
type Config struct {
	LiveModel string `yaml:"live_model,omitempty"`
	ProModel  string `yaml:"pro_model,omitempty"`
	LiteModel string `yaml:"lite_model,omitempty"`

	Voice             string `yaml:"voice,omitempty"`
	SystemInstruction string `yaml:"system_instruction,omitempty"`

	// DataDir overrides where session journals are stored. Defaults to
	// <config dir>/sessions.
	DataDir string `yaml:"data_dir,omitempty"`

	// APIKey is populated from the environment, never from the file.
	APIKey string `yaml:"-"`

	dir string
}

// Load reads the configuration from the default location. A missing file is
// not an error; defaults apply.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("config: cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom reads the configuration rooted at a specific directory.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", configFile, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("config: read %s: %w", configFile, err)
	}

	cfg.APIKey = os.Getenv(EnvAPIKey)
	return cfg, nil
}

// RequireAPIKey returns ErrMissingAPIKey when no key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// SessionsDir returns the session journal directory.
func (c *Config) SessionsDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(c.dir, "sessions")
}

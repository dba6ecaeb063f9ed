package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClientConfig configures the console CLI.
type ClientConfig struct {
	APIURL       string        `yaml:"api_url"`
	Timeout      time.Duration `yaml:"timeout"`
	FallbackName string        `yaml:"fallback_name"`
	Channels     []string      `yaml:"channels"`
	Generic      bool          `yaml:"generic_conversations"`
	RatePerSec   float64       `yaml:"requests_per_second"`
	Debug        bool          `yaml:"debug"`

	// Dir holds config.yaml and the persisted session.
	Dir string `yaml:"-"`
}

// SessionPath is where the CLI persists its session.
func (c *ClientConfig) SessionPath() string {
	return filepath.Join(c.Dir, "session.json")
}

// DefaultClientDir returns ~/.omnidesk.
func DefaultClientDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".omnidesk"
	}
	return filepath.Join(home, ".omnidesk")
}

// LoadClient reads dir/config.yaml (optional) and applies OMNIDESK_*
// environment overrides. OMNIDESK_CONFIG replaces dir when set.
func LoadClient(dir string) (*ClientConfig, error) {
	_ = godotenv.Load()

	if v := os.Getenv("OMNIDESK_CONFIG"); v != "" {
		dir = v
	}
	if dir == "" {
		dir = DefaultClientDir()
	}

	cfg := &ClientConfig{
		APIURL:  "http://localhost:8080",
		Timeout: 30 * time.Second,
		Dir:     dir,
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read config.yaml: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse config.yaml: %w", err)
		}
		cfg.Dir = dir
	}

	if v := os.Getenv("OMNIDESK_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("OMNIDESK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: OMNIDESK_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("OMNIDESK_FALLBACK_NAME"); v != "" {
		cfg.FallbackName = v
	}
	if v := os.Getenv("OMNIDESK_CHANNELS"); v != "" {
		cfg.Channels = splitList(v)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("config: timeout must be positive")
	}
	return cfg, nil
}

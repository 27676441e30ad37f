package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional on-disk configuration. Flags override any
// value set here.
type fileConfig struct {
	// Shell runs when a session is opened without a command.
	Shell string `yaml:"shell"`
	// Term is the TERM value child processes see.
	Term string `yaml:"term"`
	// Size is a "rows x cols" spec; nonzero dimensions are pinned.
	Size string `yaml:"size"`
	// IndexDir enables the scrollback search index.
	IndexDir string `yaml:"index_dir"`
	// Addr is the serve listen address.
	Addr string `yaml:"addr"`
	// AllowedOrigins restricts websocket origins for serve.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// LightBackground selects black-on-white engine defaults.
	LightBackground bool `yaml:"light_background"`
	// Env entries are appended to every job's environment, KEY=VALUE.
	Env []string `yaml:"env"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "termloom", "config.yaml")
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing file at the default location is not an error.
func loadConfig(path string) (fileConfig, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return fileConfig{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteDefaults writes the default config to the user's config directory
// when no config file was given or found. It returns the path written, or ""
// when a config already exists.
func WriteDefaults() (string, error) {
	if ConfigPath() != "" || findConfigFile() != "" {
		return "", nil
	}
	path := filepath.Join(ConfigDir(), "config.yaml")
	if err := Default().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveTo writes the config to path. The file is replaced atomically.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

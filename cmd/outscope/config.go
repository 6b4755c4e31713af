package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zee-sandev/outscope"
)

// FileConfig is the .outscope.yaml configuration read by the openapi
// command. Every field is optional; missing values fall back to defaults.
type FileConfig struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	ServerURL   string `yaml:"serverUrl"`
	Prefix      string `yaml:"prefix"`
}

// loadConfig reads .outscope.yaml from projectPath. A missing file is not
// an error; the defaults are returned as-is.
func loadConfig(projectPath string) (*FileConfig, error) {
	cfg := &FileConfig{Prefix: outscope.DefaultPrefix}

	configPath := filepath.Join(projectPath, ".outscope.yaml")
	data, err := os.ReadFile(configPath)
	if err == nil {
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, unmarshalErr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return cfg, nil
}

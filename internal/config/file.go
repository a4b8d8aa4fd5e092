// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Project config file names, checked in order.
const (
	FileNameYAML = ".testsmith.yaml"
	FileNameTOML = ".testsmith.toml"
)

// FileConfig represents the contents of a project config file. Only the
// fields a project would plausibly pin live here; credentials never do.
type FileConfig struct {
	Model       string   `yaml:"model,omitempty" toml:"model"`
	Temperature *float64 `yaml:"temperature,omitempty" toml:"temperature"`
	Strategy    string   `yaml:"strategy,omitempty" toml:"strategy"`
	Concurrency int      `yaml:"concurrency,omitempty" toml:"concurrency"`
	BaseURL     string   `yaml:"base_url,omitempty" toml:"base_url"`
}

// LoadFile reads the project config from dir, trying the YAML name first and
// the TOML name second. If neither file exists, it returns a zero-value
// FileConfig and nil error.
func LoadFile(dir string) (*FileConfig, error) {
	yamlPath := filepath.Join(dir, FileNameYAML)
	data, err := os.ReadFile(yamlPath) //nolint:gosec // user-provided project path
	if err == nil {
		var fc FileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		return &fc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	tomlPath := filepath.Join(dir, FileNameTOML)
	data, err = os.ReadFile(tomlPath) //nolint:gosec // user-provided project path
	if err == nil {
		var fc FileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
		return &fc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &FileConfig{}, nil
}

// WithFile returns a copy of c overlaid with the non-zero fields of f.
func (c Config) WithFile(f *FileConfig) Config {
	if f == nil {
		return c
	}
	if f.Model != "" {
		c.Model = f.Model
	}
	if f.Temperature != nil {
		c.Temperature = *f.Temperature
	}
	if f.Strategy != "" {
		c.Strategy = f.Strategy
	}
	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	return c
}

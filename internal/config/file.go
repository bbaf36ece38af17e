package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverrides mirrors the subset of Config an operator may set from
// mnemosyne.yaml; zero values are left untouched by loadYAMLFile.
type fileOverrides struct {
	DataPath string `yaml:"dataPath"`
	LogLevel string `yaml:"logLevel"`
	Session  *struct{ MaxItems int `yaml:"maxItems"` } `yaml:"session"`
	Project  *struct{ MaxItems int `yaml:"maxItems"` } `yaml:"project"`
	Global   *struct{ MaxItems int `yaml:"maxItems"` } `yaml:"global"`
	Temporal *struct{ MaxItems int `yaml:"maxItems"` } `yaml:"temporal"`
}

// loadYAMLFile reads path and merges any set fields into cfg. A missing
// file is not an error at the call site that checks os.Stat first; a
// malformed file is.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var fo fileOverrides
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if fo.DataPath != "" {
		cfg.DataPath = fo.DataPath
	}
	if fo.LogLevel != "" {
		cfg.LogLevel = fo.LogLevel
	}
	if fo.Session != nil && fo.Session.MaxItems > 0 {
		cfg.Session.MaxItems = fo.Session.MaxItems
	}
	if fo.Project != nil && fo.Project.MaxItems > 0 {
		cfg.Project.MaxItems = fo.Project.MaxItems
	}
	if fo.Global != nil && fo.Global.MaxItems > 0 {
		cfg.Global.MaxItems = fo.Global.MaxItems
	}
	if fo.Temporal != nil && fo.Temporal.MaxItems > 0 {
		cfg.Temporal.MaxItems = fo.Temporal.MaxItems
	}
	return nil
}

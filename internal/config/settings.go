package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the ambient, non-rc-syntax configuration loaded from
// `$HOME/.config/zish/config.yaml` — a home for settings that don't
// belong in `.zishrc`'s alias/function grammar.
type Settings struct {
	Prompt struct {
		GitStatus bool   `yaml:"git_status,omitempty"`
		Format    string `yaml:"format,omitempty"`
	} `yaml:"prompt,omitempty"`

	VimModeEnabled bool `yaml:"vim_mode_enabled,omitempty"`

	History struct {
		PoolCapacityKB int `yaml:"pool_capacity_kb,omitempty"`
	} `yaml:"history,omitempty"`
}

// DefaultSettings returns the zero-configuration defaults.
func DefaultSettings() Settings {
	var s Settings
	s.Prompt.GitStatus = true
	s.Prompt.Format = "%u@%h %w %$ "
	s.History.PoolCapacityKB = 256
	return s
}

// LoadSettings reads config.yaml from dir, falling back to defaults when
// the file is absent: missing config is not an error.
func LoadSettings(dir string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// LoadRC reads and parses path (normally `~/.zishrc`); a missing file
// yields an empty RC, not an error.
func LoadRC(path string) (RC, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RC{Aliases: map[string]string{}, Functions: map[string]string{}}, nil
		}
		return RC{}, err
	}
	return ParseRC(string(data)), nil
}

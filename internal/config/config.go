// Package config manages the persistent node configuration.
// The config file is written once after a successful bring-up and
// read on later runs to show the dashboard instead of the wizard.
// The auth key is never part of it.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const configDirName = "rlmesh"
const configFileName = "config.json"

// AppConfig stores the choices made during setup.
type AppConfig struct {
	Subnets           []string `json:"subnets"`             // advertised CIDRs, in collection order
	ExitNode          bool     `json:"exit_node"`           // advertise as exit node
	AcceptSourceRoute bool     `json:"accept_source_route"` // legacy sysctls, off by default
	Device            string   `json:"device"`              // tuned default-route device, may be empty
	OffloadPersisted  bool     `json:"offload_persisted"`   // dispatcher hook installed
}

// Default returns a config with sensible defaults.
func Default() *AppConfig {
	return &AppConfig{}
}

// Path returns the per-user config file location. The tool runs
// unprivileged so system paths are out.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(configDirName, configFileName)
	}
	return filepath.Join(dir, configDirName, configFileName)
}

// Exists reports whether a saved config is present.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Load reads the config from disk.
func Load() (*AppConfig, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk.
func Save(cfg *AppConfig) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// HasSubnets reports whether any subnets are advertised.
func (c *AppConfig) HasSubnets() bool {
	return len(c.Subnets) > 0
}

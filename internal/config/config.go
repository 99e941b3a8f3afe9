package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MinUpdateRate is the floor for the simulation update rate in Hz. Rates
// below this would stretch the publish period past 20 seconds.
const MinUpdateRate = 0.05

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sim     SimConfig     `yaml:"sim"`
	Persist PersistConfig `yaml:"persist"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthToken      string   `yaml:"auth_token"`
}

type SimConfig struct {
	// UpdateRate is the snapshot publish rate in Hz, clamped to MinUpdateRate.
	UpdateRate float64 `yaml:"update_rate"`
	// FrameID labels the coordinate frame of published point clouds.
	FrameID string `yaml:"frame_id"`
}

type PersistConfig struct {
	// Dir is where particle state files are written when the caller does
	// not supply a directory. Empty means the XDG state path.
	Dir string `yaml:"dir"`
}

// Load reads the config file at path, applying defaults for anything the
// file leaves unset. A missing file yields the defaults; a malformed file
// is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Sim.UpdateRate < MinUpdateRate {
		cfg.Sim.UpdateRate = MinUpdateRate
	}
	if cfg.Sim.FrameID == "" {
		cfg.Sim.FrameID = "map"
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Sim: SimConfig{
			UpdateRate: 2,
			FrameID:    "map",
		},
	}
}

// StateDir resolves the directory for persisted particle state: the
// configured dir, or ~/.local/state/plume-sim (respecting XDG_STATE_HOME).
func (c *Config) StateDir() string {
	if c.Persist.Dir != "" {
		return c.Persist.Dir
	}
	return DefaultStateDir()
}

const appDirName = "plume-sim"

// DefaultStateDir returns ~/.local/state/plume-sim, respecting
// XDG_STATE_HOME if set.
func DefaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

// Package config handles loading, defaulting, and validation of the
// daemon's TOML ops configuration: the operational knobs (bind address,
// default worker count, FOV data root, log chunk size override) layered
// on top of the required scenario JSON document a run actually describes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level ops configuration, mirroring the TOML sections.
type Config struct {
	Server  ServerConfig  `toml:"server"  json:"server"`
	Sim     SimConfig     `toml:"sim"     json:"sim"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// SimConfig holds run-level defaults the scenario document itself doesn't
// carry: how many worker goroutines the Manager's step loop fans out
// across, where precomputed FOV data is read from and written to, and an
// optional override for the scenario's own simlogsetup.logchunksize.
type SimConfig struct {
	NumWorkers   int    `toml:"num_workers"    json:"num_workers"`
	FOVDataRoot  string `toml:"fov_data_root"  json:"fov_data_root"`
	LogChunkSize int    `toml:"log_chunk_size" json:"log_chunk_size"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

// DefaultConfigDir returns the XDG-compliant config directory for the
// daemon. It respects $XDG_CONFIG_HOME and falls back to ~/.config/simd.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "simd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "simd")
}

// DefaultDataDir returns the XDG-compliant data directory for the daemon.
// It respects $XDG_DATA_HOME and falls back to ~/.local/share/simd.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "simd")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "simd")
}

// FindConfigFile searches for an ops config file in standard locations:
//  1. $SIMD_CONFIG environment variable
//  2. simd.toml in DefaultConfigDir() ($XDG_CONFIG_HOME/simd, or
//     ~/.config/simd when $XDG_CONFIG_HOME is unset)
//  3. /etc/simd/simd.toml
//  4. configs/example.toml (bundled fallback)
//
// Returns the path to the first file found, or empty string if none exist.
// An empty return means the caller should use Default() directly.
func FindConfigFile() string {
	if env := os.Getenv("SIMD_CONFIG"); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env
		}
	}

	xdgPath := filepath.Join(DefaultConfigDir(), "simd.toml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	legacyPath := "/etc/simd/simd.toml"
	if _, err := os.Stat(legacyPath); err == nil {
		return legacyPath
	}

	if _, err := os.Stat("configs/example.toml"); err == nil {
		return "configs/example.toml"
	}

	return ""
}

// ProfileInfo describes a config profile discovered in the config directory.
type ProfileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// ListProfiles scans a directory for .toml files and returns them as profiles.
func ListProfiles(configDir string) ([]ProfileInfo, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles []ProfileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".toml")
		profiles = append(profiles, ProfileInfo{
			Name:    name,
			Path:    filepath.Join(configDir, e.Name()),
			ModTime: info.ModTime(),
		})
	}
	return profiles, nil
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Sim: SimConfig{
			NumWorkers:   4,
			FOVDataRoot:  filepath.Join(DefaultDataDir(), "fov"),
			LogChunkSize: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. The FOV data directory is created automatically
// if it doesn't exist.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	cfg.Sim.FOVDataRoot = expandHome(cfg.Sim.FOVDataRoot)

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, ensureDirs(cfg)
}

// EnsureDirectories creates the XDG config dir and the FOV data directory.
// Called by the daemon on startup regardless of whether a config file was
// found.
func EnsureDirectories(cfg Config) error {
	if err := os.MkdirAll(DefaultConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return ensureDirs(cfg)
}

func ensureDirs(cfg Config) error {
	if cfg.Sim.FOVDataRoot == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.Sim.FOVDataRoot, 0o755); err != nil {
		return fmt.Errorf("create fov data root: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg Config) error {
	if cfg.Sim.NumWorkers <= 0 {
		return errors.New("sim.num_workers must be > 0")
	}
	if cfg.Sim.LogChunkSize < 0 {
		return errors.New("sim.log_chunk_size must be >= 0")
	}
	return nil
}

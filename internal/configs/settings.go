package configs

import (
	"os"
	"path/filepath"
)

// Settings holds the locations lockbox reads and writes.
type Settings struct {
	ConfigDir    string
	DataDir      string
	ConfigPath   string
	AuditLogPath string
	SignersPath  string
}

// LockboxSettings is computed at start-up.
var LockboxSettings *Settings

func init() {
	LockboxSettings = DefaultSettings()
}

// DefaultSettings derives the settings from the environment. Directories
// that cannot be determined fall back to the working directory.
func DefaultSettings() *Settings {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			configDir = dir
		}
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".local", "share")
		}
	}

	s := &Settings{
		ConfigDir: filepath.Join(configDir, "lockbox"),
		DataDir:   filepath.Join(dataDir, "lockbox"),
	}
	s.ConfigPath = filepath.Join(s.ConfigDir, "config.toml")
	s.AuditLogPath = filepath.Join(s.DataDir, "audit.jsonl")
	s.SignersPath = filepath.Join(s.DataDir, "signers")
	return s
}

package configs

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/PolarWolf314/lockbox/internal/archive"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
)

type Config struct {
	Keys    KeysConfig    `toml:"keys"`
	Storage StorageConfig `toml:"storage"`
	Loader  LoaderConfig  `toml:"loader"`
	Signers SignersConfig `toml:"signers"`
	Audit   AuditConfig   `toml:"audit"`
}

type KeysConfig struct {
	DefaultBits int `toml:"default_bits"`
}

type StorageConfig struct {
	Method string `toml:"method"`
	Level  *int   `toml:"level,omitempty"`
}

type LoaderConfig struct {
	MaxPasswordAttempts int `toml:"max_password_attempts"`
}

type SignersConfig struct {
	DefaultPath string `toml:"default_path"`
}

type AuditConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Keys:    KeysConfig{DefaultBits: keys.DefaultKeySize},
		Storage: StorageConfig{Method: archive.Deflated.String()},
		Audit:   AuditConfig{Enabled: true},
	}
}

// Load reads the configuration at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if err := SaveTOML(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Keys.DefaultBits < keys.MinKeySize {
		return fmt.Errorf("%w: keys.default_bits %d is below %d", kerrors.ErrKeySizeTooSmall, c.Keys.DefaultBits, keys.MinKeySize)
	}
	if c.Loader.MaxPasswordAttempts < 0 {
		return fmt.Errorf("%w: loader.max_password_attempts must not be negative", kerrors.ErrOutOfRange)
	}
	_, err := c.StorageOptions()
	return err
}

// StorageOptions converts the storage section into a storage profile.
func (c *Config) StorageOptions() (archive.FileOptions, error) {
	method, err := archive.ParseMethod(c.Storage.Method)
	if err != nil {
		return archive.FileOptions{}, err
	}
	opts := archive.FileOptions{Method: method, Level: c.Storage.Level}
	if err := opts.Validate(); err != nil {
		return archive.FileOptions{}, err
	}
	return opts, nil
}

// SignersPath returns the configured registry directory, or the default one.
func (c *Config) SignersPath() string {
	if c.Signers.DefaultPath != "" {
		return c.Signers.DefaultPath
	}
	return LockboxSettings.SignersPath
}

// AuditLogPath returns where audit entries go, or "" when auditing is off.
func (c *Config) AuditLogPath() string {
	if !c.Audit.Enabled {
		return ""
	}
	return LockboxSettings.AuditLogPath
}

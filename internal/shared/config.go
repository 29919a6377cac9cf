package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API           APIConfig          `toml:"api"`
	Storage       StorageConfig      `toml:"storage"`
	Notifications NotificationConfig `toml:"notifications"`
	Upload        UploadConfig       `toml:"upload"`
	Log           LogConfig          `toml:"log"`
}

// APIConfig contains settings for the music library backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	FallbackPort   int    `toml:"fallback_port"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig contains the durable client storage location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// NotificationConfig contains notification bus settings.
type NotificationConfig struct {
	TTLMillis int `toml:"ttl_ms"`
}

// UploadConfig contains bulk upload settings.
type UploadConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Timeout returns the HTTP client timeout, zero meaning no timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the default notification time-to-live.
func (c NotificationConfig) TTL() time.Duration {
	if c.TTLMillis <= 0 {
		return DefaultNotificationTTL
	}
	return time.Duration(c.TTLMillis) * time.Millisecond
}

// StoragePath returns the storage path with a leading "~" expanded to the home directory.
func (c StorageConfig) StoragePath() string {
	return ExpandHome(c.Path)
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

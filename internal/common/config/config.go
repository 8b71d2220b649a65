// internal/common/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// StoreConfig locates the activities data file.
type StoreConfig struct {
	DataFile string `mapstructure:"data_file"`
	FileMode string `mapstructure:"file_mode"` // octal string, e.g. "0644"
}

// Mode parses FileMode as octal permission bits.
func (s StoreConfig) Mode() (os.FileMode, error) {
	if s.FileMode == "" {
		return DefaultFileMode, nil
	}
	v, err := strconv.ParseUint(s.FileMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("store.file_mode %q is not an octal mode: %w", s.FileMode, err)
	}
	return os.FileMode(v).Perm(), nil
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig holds settings for the HTTP surface started by `serve`.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

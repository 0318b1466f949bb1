package config

import "time"

// DefaultPort is used by both binaries when no port argument is given.
const DefaultPort = 12345

// Config holds server configuration values.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath    string        `mapstructure:"database_path" yaml:"database_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:            ":12345",
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		DatabasePath:    "",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}

// Package config holds the server's file configuration.
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ServerConfig is everything the process reads from its config file.
// Command-line flags override individual fields.
type ServerConfig struct {
	// ListenAddr is the TCP bind address of the line protocol.
	ListenAddr string `yaml:"listen_addr"`
	// WSListenAddr is the optional HTTP bind address of the WebSocket
	// carrier; empty disables it.
	WSListenAddr string `yaml:"ws_listen_addr"`
	// MaxRetries is the consecutive-invalid-input budget per client.
	MaxRetries int `yaml:"max_retries"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

var (
	cfg      *ServerConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the built-in configuration.
func Default() ServerConfig {
	return ServerConfig{
		ListenAddr: ":8000",
		MaxRetries: 10,
		LogLevel:   "info",
	}
}

// Load reads the server configuration from the given path, once. Missing
// fields keep their defaults.
func Load(path string) (ServerConfig, error) {
	loadOnce.Do(func() {
		c := Default()
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read server config: %w", err)
			return
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal server config: %w", err)
			return
		}
		cfg = &c
	})
	if loadErr != nil {
		return Default(), loadErr
	}
	return *cfg, nil
}

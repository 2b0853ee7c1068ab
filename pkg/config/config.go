/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the SkuldDB configuration
type Config struct {
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

// Storage contains the storage-layer configuration. All fields are
// immutable for the process lifetime.
type Storage struct {
	// Path is the on-disk location of the store.
	Path string `yaml:"path"`

	// DeleteBatchSize bounds the number of keys removed per transaction
	// during cascading deletes.
	DeleteBatchSize int `yaml:"delete_batch_size"`

	// BlockingSlots bounds how many slow storage operations may run
	// concurrently.
	BlockingSlots int `yaml:"blocking_slots"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: Storage{
			Path:            "./data",
			DeleteBatchSize: 100,
			BlockingSlots:   8,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the storage layer cannot run with.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Storage.DeleteBatchSize < 1 {
		return fmt.Errorf("storage.delete_batch_size must be at least 1, got %d", c.Storage.DeleteBatchSize)
	}
	if c.Storage.BlockingSlots < 1 {
		return fmt.Errorf("storage.blocking_slots must be at least 1, got %d", c.Storage.BlockingSlots)
	}
	return nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

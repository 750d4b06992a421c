// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable holding the configuration
// file path when the --config flag is not given.
const EnvConfigFile = "SMIMEVAULT_CONFIG_FILE"

// Cipher identifiers accepted by protection.cipher. The default is a
// 128-bit block cipher in CBC mode for broad S/MIME client compatibility.
const (
	CipherAES128CBC = "aes128-cbc"
	CipherAES256CBC = "aes256-cbc"
	CipherAES128GCM = "aes128-gcm"
	CipherAES256GCM = "aes256-gcm"
	CipherDESCBC    = "des-cbc"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config holds the S/MIME vault configuration.
//
// It can be loaded from a JSON or YAML file (extension-detected), with
// defaults applied for any missing values. Supported extensions: .json,
// .yaml, .yml.
type Config struct {
	// Store: certificate store settings
	Store struct {
		// Path: SQLite database path
		Path string `json:"path" yaml:"path"`
		// BatchSize: page size for store scans
		BatchSize int `json:"batchSize" yaml:"batchSize"`
	} `json:"store" yaml:"store"`

	// Protection: message-protection settings
	Protection struct {
		// AllowExpiredForSigning: permit signing with an expired certificate
		AllowExpiredForSigning bool `json:"allowExpiredForSigning" yaml:"allowExpiredForSigning"`
		// AllowExpiredForEncryption: permit encrypting to expired certificates
		AllowExpiredForEncryption bool `json:"allowExpiredForEncryption" yaml:"allowExpiredForEncryption"`
		// Cipher: symmetric content-encryption algorithm identifier
		Cipher string `json:"cipher" yaml:"cipher"`
	} `json:"protection" yaml:"protection"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from path, falling back to the
// EnvConfigFile environment variable and then to defaults when path is
// empty. Missing values are filled with defaults; an unrecognized cipher
// identifier fails the load.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := unmarshalConfig(data, cfg, detectConfigFormat(path)); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// detectConfigFormat determines the configuration file format based on file
// extension, case-insensitively.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("config: failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("config: failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "smimevault.db"
	}
	if c.Store.BatchSize <= 0 {
		c.Store.BatchSize = 500
	}
	if c.Protection.Cipher == "" {
		c.Protection.Cipher = CipherAES128CBC
	}
}

func (c *Config) validate() error {
	switch c.Protection.Cipher {
	case CipherAES128CBC, CipherAES256CBC, CipherAES128GCM, CipherAES256GCM, CipherDESCBC:
		return nil
	default:
		return fmt.Errorf("config: unknown cipher %q", c.Protection.Cipher)
	}
}

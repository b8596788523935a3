// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
	"github.com/spf13/viper"
)

const (
	AppName       = "azul-plugin-qrcode"
	ConfigType    = "yaml"
	DefaultConfig = `# QR code plugin configuration

# Input
file_type: ""            # Force an azul file format (e.g. "document/pdf"), empty = sniff content
max_file_size: "50MB"    # Largest input file read into memory

# Scanning
max_images: 100          # Images processed per file before the run is marked completed_with_errors
workers: 4               # Images decoded concurrently
max_value_length: 4000   # Longer payloads are truncated in qr_code_data_raw and kept as text

# Output
output: "text"           # text, json or yaml
extract_dir: ""          # Write binary children and full payload texts here, empty = don't write

# Logging
log_level: "warn"        # debug, info, warn, error or none
debug: false             # Shortcut for log_level: debug
`
)

// Output formats understood by the report package.
var validOutputs = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"none":  true,
}

// Settings holds all application configuration
type Settings struct {
	// Input
	FileType    string `mapstructure:"file_type"`
	MaxFileSize string `mapstructure:"max_file_size"`

	// Scanning
	MaxImages      int `mapstructure:"max_images"`
	Workers        int `mapstructure:"workers"`
	MaxValueLength int `mapstructure:"max_value_length"`

	// Output
	Output     string `mapstructure:"output"`
	ExtractDir string `mapstructure:"extract_dir"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/azul-plugin-qrcode/
func Init() error {
	viper.SetDefault("file_type", "")
	viper.SetDefault("max_file_size", "50MB")
	viper.SetDefault("max_images", 100)
	viper.SetDefault("workers", 4)
	viper.SetDefault("max_value_length", 4000)
	viper.SetDefault("output", "text")
	viper.SetDefault("extract_dir", "")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// MaxFileSizeBytes parses max_file_size ("50MB", "512KiB", "1048576").
func (s *Settings) MaxFileSizeBytes() (int64, error) {
	n, err := units.RAMInBytes(s.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("max_file_size: %w", err)
	}
	return n, nil
}

// EffectiveLogLevel folds the debug shortcut into log_level.
func (s *Settings) EffectiveLogLevel() string {
	if s.Debug {
		return "debug"
	}
	return s.LogLevel
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if n, err := s.MaxFileSizeBytes(); err != nil {
		errs = append(errs, err)
	} else if n <= 0 {
		errs = append(errs, fmt.Errorf("max_file_size must be positive, got %q", s.MaxFileSize))
	}

	if s.MaxImages < 1 || s.MaxImages > 10000 {
		errs = append(errs, fmt.Errorf("max_images must be between 1 and 10000, got %d", s.MaxImages))
	}
	if s.Workers < 1 || s.Workers > 64 {
		errs = append(errs, fmt.Errorf("workers must be between 1 and 64, got %d", s.Workers))
	}
	// Truncated values keep a three character "..." suffix
	if s.MaxValueLength < 16 || s.MaxValueLength > 1000000 {
		errs = append(errs, fmt.Errorf("max_value_length must be between 16 and 1000000, got %d", s.MaxValueLength))
	}

	if !validOutputs[s.Output] {
		errs = append(errs, fmt.Errorf("output must be one of text, json, yaml, got %q", s.Output))
	}
	if !validLogLevels[s.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, none, got %q", s.LogLevel))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

// isolateHome points HOME at a temp dir and clears XDG_CONFIG_HOME so
// os.UserConfigDir resolves to <tmp>/.config.
func isolateHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	return tmpDir
}

func writeXDGConfig(t *testing.T, home, content string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	})
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	writeXDGConfig(t, home, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"file_type", ""},
		{"max_file_size", "50MB"},
		{"max_images", 100},
		{"workers", 4},
		{"max_value_length", 4000},
		{"output", "text"},
		{"extract_dir", ""},
		{"log_level", "warn"},
		{"debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.expected {
				t.Errorf("viper.Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestInit_CreatesConfigIfMissing(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	configPath := filepath.Join(home, ".config", AppName, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Init() did not create config file at %s", configPath)
	}
}

func TestInit_ReadsLocalConfigFirst(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	writeXDGConfig(t, home, "workers: 2")
	chdir(t, home)

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("workers: 8"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("workers"); got != 8 {
		t.Errorf("viper.GetInt(workers) = %d, want 8 (local config)", got)
	}
}

func TestInit_DotConfigTakesPrecedence(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)

	if err := os.WriteFile(filepath.Join(home, ".config.yaml"), []byte("max_images: 30"), 0644); err != nil {
		t.Fatalf("failed to write .config.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("max_images: 20"), 0644); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("max_images"); got != 30 {
		t.Errorf("viper.GetInt(max_images) = %d, want 30 (.config.yaml should take precedence)", got)
	}
}

func TestInit_InvalidConfigFile(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)
	writeXDGConfig(t, home, "invalid: yaml: content: [[[")

	if err := Init(); err == nil {
		t.Error("Init() should return error for invalid YAML")
	}
}

func TestGet_ReturnsSettings(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)
	writeXDGConfig(t, home, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.MaxImages != 100 {
		t.Errorf("Settings.MaxImages = %d, want 100", settings.MaxImages)
	}
	if settings.Workers != 4 {
		t.Errorf("Settings.Workers = %d, want 4", settings.Workers)
	}
	if settings.MaxValueLength != 4000 {
		t.Errorf("Settings.MaxValueLength = %d, want 4000", settings.MaxValueLength)
	}
	if settings.Output != "text" {
		t.Errorf("Settings.Output = %q, want text", settings.Output)
	}
	if settings.LogLevel != "warn" {
		t.Errorf("Settings.LogLevel = %q, want warn", settings.LogLevel)
	}
}

func TestGet_AllFields(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)

	customConfig := `file_type: "document/pdf"
max_file_size: "1MiB"
max_images: 5
workers: 2
max_value_length: 64
output: "json"
extract_dir: "/tmp/out"
log_level: "info"
debug: true
`
	writeXDGConfig(t, home, customConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if settings.FileType != "document/pdf" {
		t.Errorf("Settings.FileType = %q, want document/pdf", settings.FileType)
	}
	if n, _ := settings.MaxFileSizeBytes(); n != 1<<20 {
		t.Errorf("Settings.MaxFileSizeBytes() = %d, want %d", n, 1<<20)
	}
	if settings.MaxImages != 5 {
		t.Errorf("Settings.MaxImages = %d, want 5", settings.MaxImages)
	}
	if settings.Workers != 2 {
		t.Errorf("Settings.Workers = %d, want 2", settings.Workers)
	}
	if settings.MaxValueLength != 64 {
		t.Errorf("Settings.MaxValueLength = %d, want 64", settings.MaxValueLength)
	}
	if settings.Output != "json" {
		t.Errorf("Settings.Output = %q, want json", settings.Output)
	}
	if settings.ExtractDir != "/tmp/out" {
		t.Errorf("Settings.ExtractDir = %q, want /tmp/out", settings.ExtractDir)
	}
	if settings.EffectiveLogLevel() != "debug" {
		t.Errorf("Settings.EffectiveLogLevel() = %q, want debug", settings.EffectiveLogLevel())
	}
}

func TestGet_InvalidSettings(t *testing.T) {
	resetViper()
	home := isolateHome(t)
	chdir(t, home)
	writeXDGConfig(t, home, "workers: 0")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, err := Get()
	if err == nil {
		t.Fatal("Get() should fail for workers: 0")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Get() error = %v, want invalid config", err)
	}
}

func TestEnsureConfigExists_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config")

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(configPath, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != DefaultConfig {
		t.Errorf("config content does not match DefaultConfig")
	}
}

func TestEnsureConfigExists_DoesNotOverwrite(t *testing.T) {
	tmpDir := t.TempDir()

	configFile := filepath.Join(tmpDir, "config.yaml")
	existingContent := "existing: true"
	if err := os.WriteFile(configFile, []byte(existingContent), 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := ensureConfigExists(tmpDir); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("ensureConfigExists() overwrote existing config")
	}
}

func TestEnsureConfigExists_WriteError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping test when running as root")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "readonly")
	if err := os.MkdirAll(configPath, 0555); err != nil {
		t.Fatalf("failed to create readonly dir: %v", err)
	}
	defer func() {
		if err := os.Chmod(configPath, 0755); err != nil {
			t.Logf("failed to restore permissions: %v", err)
		}
	}()

	if err := ensureConfigExists(filepath.Join(configPath, "subdir")); err == nil {
		t.Error("ensureConfigExists() should return error for read-only directory")
	}
}

func TestConstants(t *testing.T) {
	if AppName != "azul-plugin-qrcode" {
		t.Errorf("AppName = %q, want %q", AppName, "azul-plugin-qrcode")
	}
	if ConfigType != "yaml" {
		t.Errorf("ConfigType = %q, want %q", ConfigType, "yaml")
	}
}

func TestDefaultConfig_ContainsExpectedKeys(t *testing.T) {
	expectedKeys := []string{
		"file_type",
		"max_file_size",
		"max_images",
		"workers",
		"max_value_length",
		"output",
		"extract_dir",
		"log_level",
		"debug",
	}

	for _, key := range expectedKeys {
		if !strings.Contains(DefaultConfig, key+":") {
			t.Errorf("DefaultConfig missing key: %s", key)
		}
	}
}

// Validation tests

func TestSettings_Validate_ValidSettings(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid settings", err)
	}
}

func TestSettings_Validate_MaxImages(t *testing.T) {
	tests := []struct {
		name      string
		maxImages int
		wantErr   bool
	}{
		{"zero", 0, true},
		{"minimum", 1, false},
		{"default", 100, false},
		{"maximum", 10000, false},
		{"too high", 10001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.MaxImages = tt.maxImages
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_Workers(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		wantErr bool
	}{
		{"zero", 0, true},
		{"one", 1, false},
		{"maximum", 64, false},
		{"too many", 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.Workers = tt.workers
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_MaxValueLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"too short", 15, true},
		{"minimum", 16, false},
		{"maximum", 1000000, false},
		{"too long", 1000001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.MaxValueLength = tt.length
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_MaxFileSize(t *testing.T) {
	tests := []struct {
		name    string
		size    string
		wantErr bool
	}{
		{"megabytes", "50MB", false},
		{"kibibytes", "512KiB", false},
		{"plain bytes", "1048576", false},
		{"zero", "0", true},
		{"garbage", "lots", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			s.MaxFileSize = tt.size
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_Output(t *testing.T) {
	for _, output := range []string{"text", "json", "yaml"} {
		t.Run(output, func(t *testing.T) {
			s := validSettings()
			s.Output = output
			if err := s.Validate(); err != nil {
				t.Errorf("Validate() error = %v for output %q", err, output)
			}
		})
	}

	s := validSettings()
	s.Output = "xml"
	if err := s.Validate(); err == nil {
		t.Error("Validate() should reject output xml")
	}
}

func TestSettings_Validate_LogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "none"} {
		t.Run(level, func(t *testing.T) {
			s := validSettings()
			s.LogLevel = level
			if err := s.Validate(); err != nil {
				t.Errorf("Validate() error = %v for log_level %q", err, level)
			}
		})
	}

	s := validSettings()
	s.LogLevel = "verbose"
	if err := s.Validate(); err == nil {
		t.Error("Validate() should reject log_level verbose")
	}
}

func TestSettings_Validate_MultipleErrors(t *testing.T) {
	s := &Settings{
		MaxFileSize:    "huge", // invalid
		MaxImages:      0,      // invalid
		Workers:        0,      // invalid
		MaxValueLength: 1,      // invalid
		Output:         "xml",  // invalid
		LogLevel:       "loud", // invalid
	}

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() should return error for multiple invalid fields")
	}

	errStr := err.Error()
	expectedSubstrings := []string{
		"max_file_size",
		"max_images",
		"workers",
		"max_value_length",
		"output",
		"log_level",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(errStr, substr) {
			t.Errorf("Validate() error should mention %q, got: %v", substr, errStr)
		}
	}
}

func TestSettings_EffectiveLogLevel(t *testing.T) {
	s := validSettings()
	if got := s.EffectiveLogLevel(); got != "warn" {
		t.Errorf("EffectiveLogLevel() = %q, want warn", got)
	}
	s.Debug = true
	if got := s.EffectiveLogLevel(); got != "debug" {
		t.Errorf("EffectiveLogLevel() with debug = %q, want debug", got)
	}
}

// validSettings returns a Settings struct with all valid values
func validSettings() *Settings {
	return &Settings{
		FileType:       "",
		MaxFileSize:    "50MB",
		MaxImages:      100,
		Workers:        4,
		MaxValueLength: 4000,
		Output:         "text",
		ExtractDir:     "",
		LogLevel:       "warn",
		Debug:          false,
	}
}

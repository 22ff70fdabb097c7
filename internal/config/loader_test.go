package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Defaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}

	// All providers enabled by default
	if !cfg.Providers.Claude.Enabled {
		t.Error("Providers.Claude.Enabled = false, want true (default)")
	}
	if !cfg.Providers.Gemini.Enabled {
		t.Error("Providers.Gemini.Enabled = false, want true (default)")
	}
	if !cfg.Providers.OpenAI.Enabled {
		t.Error("Providers.OpenAI.Enabled = false, want true (default)")
	}
	if cfg.Providers.Claude.Path != "claude" {
		t.Errorf("Providers.Claude.Path = %q, want %q", cfg.Providers.Claude.Path, "claude")
	}
	if cfg.Providers.OpenAI.Path != "chatgpt" {
		t.Errorf("Providers.OpenAI.Path = %q, want %q", cfg.Providers.OpenAI.Path, "chatgpt")
	}
	if cfg.Providers.Claude.Timeout != "2m" {
		t.Errorf("Providers.Claude.Timeout = %q, want %q", cfg.Providers.Claude.Timeout, "2m")
	}

	if cfg.State.Backend != "sqlite" {
		t.Errorf("State.Backend = %q, want %q", cfg.State.Backend, "sqlite")
	}
	if cfg.State.Path != filepath.Join(".gripro", "state", "gripro.db") {
		t.Errorf("State.Path = %q, want default under .gripro/state", cfg.State.Path)
	}

	if cfg.Workflow.ContextLimit != 500 {
		t.Errorf("Workflow.ContextLimit = %d, want %d", cfg.Workflow.ContextLimit, 500)
	}
	if cfg.Workflow.MessagePreview != 100 {
		t.Errorf("Workflow.MessagePreview = %d, want %d", cfg.Workflow.MessagePreview, 100)
	}

	if cfg.Server.Addr != "127.0.0.1:8400" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, "127.0.0.1:8400")
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	os.Setenv("GRIPRO_LOG_LEVEL", "debug")
	os.Setenv("GRIPRO_STATE_BACKEND", "json")
	os.Setenv("GRIPRO_WORKFLOW_CONTEXT_LIMIT", "250")
	defer func() {
		os.Unsetenv("GRIPRO_LOG_LEVEL")
		os.Unsetenv("GRIPRO_STATE_BACKEND")
		os.Unsetenv("GRIPRO_WORKFLOW_CONTEXT_LIMIT")
	}()

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.State.Backend != "json" {
		t.Errorf("State.Backend = %q, want %q", cfg.State.Backend, "json")
	}
	if cfg.Workflow.ContextLimit != 250 {
		t.Errorf("Workflow.ContextLimit = %d, want %d", cfg.Workflow.ContextLimit, 250)
	}
}

func TestLoader_MissingConfig(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil (should use defaults)", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q (default)", cfg.Log.Level, "info")
	}
}

func TestLoader_ConfigFileOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
log:
  level: warn
  format: json
providers:
  openai:
    enabled: false
state:
  backend: json
  path: /tmp/gripro-test/state.json
workflow:
  context_limit: 800
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Providers.OpenAI.Enabled {
		t.Error("Providers.OpenAI.Enabled = true, want false (from file)")
	}
	// Unset keys keep their defaults
	if !cfg.Providers.Claude.Enabled {
		t.Error("Providers.Claude.Enabled = false, want true (default)")
	}
	if cfg.State.Backend != "json" {
		t.Errorf("State.Backend = %q, want %q", cfg.State.Backend, "json")
	}
	if cfg.Workflow.ContextLimit != 800 {
		t.Errorf("Workflow.ContextLimit = %d, want %d", cfg.Workflow.ContextLimit, 800)
	}
}

func TestLoader_Precedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	// Config file sets level to "warn"
	configContent := `
log:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Environment sets level to "debug" (should override file)
	os.Setenv("GRIPRO_LOG_LEVEL", "debug")
	defer os.Unsetenv("GRIPRO_LOG_LEVEL")

	loader := NewLoader().WithConfigFile(configPath)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (env should override file)", cfg.Log.Level, "debug")
	}
}

func TestLoader_InvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid-config.yaml")

	invalidContent := `
log:
  level: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with invalid config should return error")
	}
}

func TestLoader_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `log:
  level: info
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	_, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loader.ConfigFile() != configPath {
		t.Errorf("ConfigFile() = %q, want %q", loader.ConfigFile(), configPath)
	}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("NewLoader() viper instance is nil")
	}
	if loader.envPrefix != "GRIPRO" {
		t.Errorf("NewLoader() envPrefix = %q, want %q", loader.envPrefix, "GRIPRO")
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_LOG_LEVEL", "error")
	defer os.Unsetenv("CUSTOM_LOG_LEVEL")

	loader := NewLoader().WithEnvPrefix("CUSTOM")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "error")
	}
}

func TestLoader_DefaultYAMLIsValid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(DefaultConfigYAML), 0o644); err != nil {
		t.Fatalf("Failed to write default config: %v", err)
	}

	loader := NewLoader().WithConfigFile(configPath)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig() error = %v, default config should be valid", err)
	}
	if cfg.Providers.Claude.Path != "claude" {
		t.Errorf("Providers.Claude.Path = %q, want %q", cfg.Providers.Claude.Path, "claude")
	}
}

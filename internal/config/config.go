// Package config provides configuration loading and validation for gripro.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	Workflow  WorkflowConfig  `mapstructure:"workflow" yaml:"workflow"`
	Roster    RosterConfig    `mapstructure:"roster" yaml:"roster"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// LogConfig controls logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, text, pretty, auto
	File   string `mapstructure:"file" yaml:"file"`     // optional log file path
}

// ProviderConfig holds per-provider CLI settings.
type ProviderConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Path    string   `mapstructure:"path" yaml:"path"`       // executable name or absolute path
	Args    []string `mapstructure:"args" yaml:"args"`       // extra arguments appended to every invocation
	Timeout string   `mapstructure:"timeout" yaml:"timeout"` // duration string, e.g. "2m"
}

// TimeoutDuration parses the configured timeout, falling back to def when unset.
func (p ProviderConfig) TimeoutDuration(def time.Duration) (time.Duration, error) {
	if p.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
	}
	return d, nil
}

// ProvidersConfig groups the supported provider CLIs.
type ProvidersConfig struct {
	Claude ProviderConfig `mapstructure:"claude" yaml:"claude"`
	Gemini ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	OpenAI ProviderConfig `mapstructure:"openai" yaml:"openai"`
}

// For returns the configuration for the named provider.
func (p ProvidersConfig) For(name string) (ProviderConfig, bool) {
	switch name {
	case "claude":
		return p.Claude, true
	case "gemini":
		return p.Gemini, true
	case "openai":
		return p.OpenAI, true
	default:
		return ProviderConfig{}, false
	}
}

// EnabledNames returns the names of all enabled providers in declaration order.
func (p ProvidersConfig) EnabledNames() []string {
	var names []string
	if p.Claude.Enabled {
		names = append(names, "claude")
	}
	if p.Gemini.Enabled {
		names = append(names, "gemini")
	}
	if p.OpenAI.Enabled {
		names = append(names, "openai")
	}
	return names
}

// StateConfig controls project state persistence.
type StateConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // sqlite, json, none
	Path       string `mapstructure:"path" yaml:"path"`
	BackupPath string `mapstructure:"backup_path" yaml:"backup_path"`
}

// WorkflowConfig tunes workflow execution behavior.
type WorkflowConfig struct {
	// ContextLimit caps how many characters of each phase result are
	// carried into the next phase's context.
	ContextLimit int `mapstructure:"context_limit" yaml:"context_limit"`
	// MessagePreview caps how many characters of an agent message are
	// recorded in the activity log.
	MessagePreview int `mapstructure:"message_preview" yaml:"message_preview"`
}

// RosterConfig points at an optional agent roster file.
type RosterConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Watch bool   `mapstructure:"watch" yaml:"watch"` // reload roster on change in serve mode
}

// ServerConfig controls the HTTP control surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateProviders(&cfg.Providers)
	v.validateState(&cfg.State)
	v.validateWorkflow(&cfg.Workflow)
	v.validateRoster(&cfg.Roster)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true, "pretty": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json, pretty")
	}

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateProviders(cfg *ProvidersConfig) {
	if len(cfg.EnabledNames()) == 0 {
		v.addError("providers", nil, "at least one provider must be enabled")
	}

	v.validateProvider("providers.claude", &cfg.Claude)
	v.validateProvider("providers.gemini", &cfg.Gemini)
	v.validateProvider("providers.openai", &cfg.OpenAI)
}

func (v *Validator) validateProvider(prefix string, cfg *ProviderConfig) {
	if !cfg.Enabled {
		return
	}

	if cfg.Path == "" {
		v.addError(prefix+".path", cfg.Path, "path required when enabled")
	}

	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			v.addError(prefix+".timeout", cfg.Timeout, "invalid duration format")
		}
	}
}

func (v *Validator) validateState(cfg *StateConfig) {
	validBackends := map[string]bool{
		"sqlite": true, "json": true, "none": true,
	}
	if !validBackends[cfg.Backend] {
		v.addError("state.backend", cfg.Backend, "must be one of: sqlite, json, none")
	}

	if cfg.Backend != "none" && cfg.Path == "" {
		v.addError("state.path", cfg.Path, "path required")
	}
}

func (v *Validator) validateWorkflow(cfg *WorkflowConfig) {
	if cfg.ContextLimit <= 0 {
		v.addError("workflow.context_limit", cfg.ContextLimit, "must be positive")
	}

	if cfg.MessagePreview <= 0 {
		v.addError("workflow.message_preview", cfg.MessagePreview, "must be positive")
	}
}

func (v *Validator) validateRoster(cfg *RosterConfig) {
	if cfg.Path != "" && !isValidPath(cfg.Path) {
		v.addError("roster.path", cfg.Path, "invalid file path")
	}

	if cfg.Watch && cfg.Path == "" {
		v.addError("roster.watch", cfg.Watch, "requires roster.path to be set")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Addr == "" {
		v.addError("server.addr", cfg.Addr, "address required")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}

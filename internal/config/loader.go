package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from files and environment variables.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a configuration loader with gripro defaults.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "GRIPRO",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "GRIPRO",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load reads configuration from all sources and returns the merged result.
// Precedence, highest first: environment variables, config file, defaults.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".gripro")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "gripro"))
		}
	}

	// Read config file (ignore not found, defaults and env still apply)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// ConfigFile returns the path of the config file that was loaded, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Viper exposes the underlying viper instance for advanced use.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")
	l.v.SetDefault("log.file", "")

	l.v.SetDefault("providers.claude.enabled", true)
	l.v.SetDefault("providers.claude.path", "claude")
	l.v.SetDefault("providers.claude.timeout", "2m")
	l.v.SetDefault("providers.gemini.enabled", true)
	l.v.SetDefault("providers.gemini.path", "gemini")
	l.v.SetDefault("providers.gemini.timeout", "2m")
	l.v.SetDefault("providers.openai.enabled", true)
	l.v.SetDefault("providers.openai.path", "chatgpt")
	l.v.SetDefault("providers.openai.timeout", "2m")

	l.v.SetDefault("state.backend", "sqlite")
	l.v.SetDefault("state.path", filepath.Join(".gripro", "state", "gripro.db"))
	l.v.SetDefault("state.backup_path", "")

	l.v.SetDefault("workflow.context_limit", 500)
	l.v.SetDefault("workflow.message_preview", 100)

	l.v.SetDefault("roster.path", "")
	l.v.SetDefault("roster.watch", false)

	l.v.SetDefault("server.addr", "127.0.0.1:8400")
}

// Load is a convenience that loads configuration with default settings.
func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigFile(path).Load()
}

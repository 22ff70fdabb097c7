package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	stateDir  string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	// logger is installed by initConfig once the effective log settings
	// are known. Commands run after PersistentPreRunE, so they always see
	// the configured logger.
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gripro",
	Short: "Multi-agent AI orchestrator over local provider CLIs",
	Long: `gripro coordinates a team of specialized AI agents backed by locally
installed provider CLIs (claude, gemini, chatgpt). Tasks are routed to
the provider best suited to each agent's role, phased workflow templates
chain agents together, and project state is persisted between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .gripro/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json, pretty)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "",
		"directory for the state file (overrides state.path)")

	// Bind flags to viper (errors are nil when flag exists)
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".gripro")
		viper.AddConfigPath("$HOME/.config/gripro")
	}

	viper.SetEnvPrefix("GRIPRO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	// --state-dir relocates the state file without editing the config.
	if stateDir != "" {
		file := "gripro.db"
		if viper.GetString("state.backend") == "json" {
			file = "state.json"
		}
		viper.Set("state.path", filepath.Join(stateDir, file))
	}

	logger = logging.New(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})

	return nil
}

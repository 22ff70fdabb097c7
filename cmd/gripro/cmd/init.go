package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gripro in the current directory",
	Long: `Initialize gripro in the current directory. Creates the .gripro
directory structure and writes a default configuration file.`,
	RunE: runInit,
}

var (
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
}

func runInit(_ *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	configPath := filepath.Join(cwd, ".gripro", "config.yaml")

	// Check existing config
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration already exists, use --force to overwrite")
	}

	// Create directories
	dirs := []string{
		".gripro",
		".gripro/state",
		".gripro/logs",
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(cwd, dir), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(configPath, []byte(config.DefaultConfigYAML), 0o644); err != nil { //nolint:gosec // Config file needs to be readable
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println("Initialized gripro in", cwd)
	fmt.Println("Configuration file: .gripro/config.yaml")
	fmt.Println("Run 'gripro doctor' to verify setup")

	return nil
}

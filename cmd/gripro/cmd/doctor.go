package cmd

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/gripro/internal/directory"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider CLIs and configuration",
	Long: `Verify that provider CLIs are installed, the configuration is valid,
and the host has resources to spare. At least one provider CLI must be
available for tasks to execute.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Checking provider CLIs...")
	fmt.Println()

	providers := []struct {
		name string
		cfg  config.ProviderConfig
	}{
		{"claude", cfg.Providers.Claude},
		{"gemini", cfg.Providers.Gemini},
		{"openai", cfg.Providers.OpenAI},
	}

	anyAvailable := false
	for _, p := range providers {
		switch {
		case !p.cfg.Enabled:
			fmt.Printf("  ○ %s (disabled)\n", p.name)
		case p.cfg.Path == "":
			fmt.Printf("  ✗ %s (no path configured)\n", p.name)
		case checkCommand(p.cfg.Path, []string{"--version"}):
			fmt.Printf("  ✓ %s (%s)\n", p.name, p.cfg.Path)
			anyAvailable = true
		default:
			fmt.Printf("  ✗ %s (%s not found)\n", p.name, p.cfg.Path)
		}
	}
	fmt.Println()

	fmt.Println("Validating configuration...")
	fmt.Println()

	issues := configIssues(cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			fmt.Printf("  ✗ %s\n", issue)
		}
	} else {
		fmt.Println("  ✓ Configuration valid")
	}
	fmt.Println()

	if cfg.Roster.Path != "" {
		fmt.Println("Checking roster...")
		fmt.Println()
		if defs, err := directory.LoadRosterFile(cfg.Roster.Path); err != nil {
			fmt.Printf("  ✗ %s\n", err)
		} else {
			fmt.Printf("  ✓ %s (%d agents)\n", cfg.Roster.Path, len(defs))
		}
		fmt.Println()
	}

	printSnapshot(cfg)

	if !anyAvailable {
		fmt.Println("No provider CLI is available, tasks cannot execute")
		return fmt.Errorf("provider check failed")
	}
	if len(issues) > 0 {
		fmt.Println("Configuration errors must be fixed before running tasks")
		return fmt.Errorf("configuration check failed")
	}

	fmt.Println("All checks passed")
	return nil
}

func checkCommand(name string, args []string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}

// configIssues runs full validation and flattens the result to one
// message per problem.
func configIssues(cfg *config.Config) []string {
	var issues []string
	if err := config.ValidateConfig(cfg); err != nil {
		if verrs, ok := err.(config.ValidationErrors); ok {
			for _, verr := range verrs {
				issues = append(issues, verr.Error())
			}
		} else {
			issues = append(issues, err.Error())
		}
	}
	return issues
}

func printSnapshot(cfg *config.Config) {
	fmt.Println("System resources...")
	fmt.Println()

	diskPath := ""
	if cfg.State.Path != "" {
		diskPath = filepath.Dir(cfg.State.Path)
	}
	snap := diagnostics.NewCollector(diskPath).Collect()

	if snap.CPUModel != "" {
		fmt.Printf("  CPU:    %s (%d cores, %d threads)\n", snap.CPUModel, snap.CPUCores, snap.CPUThreads)
	} else {
		fmt.Printf("  CPU:    %d cores, %d threads\n", snap.CPUCores, snap.CPUThreads)
	}
	fmt.Printf("  Memory: %.0f/%.0f MB (%.0f%%)\n", snap.MemUsedMB, snap.MemTotalMB, snap.MemPercent)
	fmt.Printf("  Disk:   %.1f/%.1f GB (%.0f%%) at %s\n", snap.DiskUsedGB, snap.DiskTotalGB, snap.DiskPercent, snap.DiskPath)
	fmt.Printf("  Load:   %.2f %.2f %.2f\n", snap.LoadAvg1, snap.LoadAvg5, snap.LoadAvg15)
	for _, gpu := range snap.GPUs {
		fmt.Printf("  GPU:    %s\n", gpu.Name)
	}
	fmt.Println()
}

package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/directory"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect the agent directory",
	Long: `Inspect the agent directory: the built-in default team plus any
agents registered from the configured roster file.`,
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE:  runAgentsList,
}

var agentsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate all agent definitions",
	Long: `Validate all agent definitions. An agent is invalid when it is
inactive or depends on an unregistered agent. A missing prompt file is
reported as a warning in the logs but does not invalidate the agent.`,
	RunE: runAgentsValidate,
}

var (
	agentsJSON bool
)

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsValidateCmd)

	agentsCmd.PersistentFlags().BoolVar(&agentsJSON, "json", false, "Output as JSON")
}

// loadDirectory builds the agent directory from defaults plus the
// configured roster file. No providers are probed.
func loadDirectory() (*directory.Directory, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dir, err := directory.NewWithDefaults(logger)
	if err != nil {
		return nil, err
	}
	if cfg.Roster.Path != "" {
		if _, err := directory.LoadInto(dir, cfg.Roster.Path); err != nil {
			return nil, fmt.Errorf("loading roster %s: %w", cfg.Roster.Path, err)
		}
	}
	return dir, nil
}

func runAgentsList(_ *cobra.Command, _ []string) error {
	dir, err := loadDirectory()
	if err != nil {
		return err
	}

	agents := dir.List()
	if agentsJSON {
		return outputJSON(agents)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tALIAS\tROLE\tACTIVE\tDEPENDENCIES")
	fmt.Fprintln(w, "----\t-----\t----\t------\t------------")

	for _, agent := range agents {
		active := "yes"
		if !agent.Active {
			active = "no"
		}
		deps := "-"
		if len(agent.Dependencies) > 0 {
			deps = strings.Join(agent.Dependencies, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			agent.Name, agent.Alias, agent.Role, active, deps)
	}
	w.Flush()

	fmt.Println()
	fmt.Printf("%d agents registered\n", dir.Len())
	return nil
}

func runAgentsValidate(_ *cobra.Command, _ []string) error {
	dir, err := loadDirectory()
	if err != nil {
		return err
	}

	results := dir.ValidateAll()
	if agentsJSON {
		return outputJSON(results)
	}

	allValid := true
	for _, name := range dir.Names() {
		if results[name] {
			fmt.Printf("  ✓ %s\n", name)
		} else {
			fmt.Printf("  ✗ %s\n", name)
			allValid = false
		}
	}
	fmt.Println()

	if !allValid {
		return fmt.Errorf("agent validation failed")
	}
	fmt.Println("All agents valid")
	return nil
}

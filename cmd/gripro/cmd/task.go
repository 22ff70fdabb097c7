package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

var taskCmd = &cobra.Command{
	Use:   "task <agent> <description>",
	Short: "Execute a single task through one agent",
	Long: `Execute a single task through the named agent. The agent is resolved
by name or alias, the task is routed to a provider CLI based on the
agent's role, and the outcome is printed when the provider returns.

Examples:
  # Ask the coordinator to plan
  gripro task Primo "Plan the MVP for the todo app"

  # Record the activity under a project
  gripro task baky_backend "Design the REST API" --project <id>`,
	Args: cobra.ExactArgs(2),
	RunE: runTask,
}

var (
	taskProject      string
	taskSystemPrompt string
	taskJSON         bool
)

func init() {
	rootCmd.AddCommand(taskCmd)

	taskCmd.Flags().StringVarP(&taskProject, "project", "p", "", "Project ID to record activity under")
	taskCmd.Flags().StringVar(&taskSystemPrompt, "system-prompt", "", "Extra system context passed to the provider")
	taskCmd.Flags().BoolVar(&taskJSON, "json", false, "Output as JSON")
}

func runTask(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	outcome, err := eng.ExecuteTask(ctx, taskProject, args[0], args[1], taskSystemPrompt)
	if err != nil {
		return err
	}

	if taskJSON {
		return outputJSON(outcome)
	}

	printOutcome(outcome)
	return nil
}

func printOutcome(o *core.TaskOutcome) {
	fmt.Printf("Agent:    %s\n", o.Agent)
	fmt.Printf("Provider: %s\n", o.Provider)
	fmt.Printf("Status:   %s\n", o.Status)
	if o.Error != "" {
		fmt.Printf("Error:    %s\n", o.Error)
	}
	if o.Result != "" {
		fmt.Println()
		fmt.Println(o.Result)
	}
}

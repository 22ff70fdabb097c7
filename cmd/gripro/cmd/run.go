package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

var runCmd = &cobra.Command{
	Use:   "run <template>",
	Short: "Run a workflow template",
	Long: `Run a phased workflow template. Phases execute in order, each through
its configured agent, and results from completed phases are carried into
the context of later phases. A phase whose provider fails is recorded as
failed and the workflow continues.

Available templates: full, planning, development, testing, deployment,
documentation.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

var (
	runProject string
	runContext string
	runJSON    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "Project ID to record activity under")
	runCmd.Flags().StringVarP(&runContext, "context", "c", "", "Initial context passed to the first phase")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output as JSON")
}

func runWorkflow(_ *cobra.Command, args []string) error {
	// Parse early so an unknown template fails before any setup.
	wt, err := core.ParseWorkflowType(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	if !runJSON {
		fmt.Printf("Running %s workflow...\n", wt)
	}

	result, err := eng.RunWorkflow(ctx, runProject, string(wt), runContext)
	if err != nil {
		return err
	}

	if runJSON {
		return outputJSON(result)
	}

	fmt.Println()
	printWorkflowResult(result)
	return nil
}

func printWorkflowResult(result *core.WorkflowResult) {
	fmt.Printf("Workflow: %s\n", result.Type)
	if result.ProjectID != "" {
		fmt.Printf("Project:  %s\n", result.ProjectID)
	}
	fmt.Printf("Progress: %d%% (%d/%d phases completed)\n",
		result.Progress, len(result.Completed), len(result.Phases))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tAGENT\tPROVIDER\tSTATUS\tRESULT")
	fmt.Fprintln(w, "-----\t-----\t--------\t------\t------")

	for _, phase := range result.Phases {
		outcome, ok := result.Outcomes[phase]
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", phase)
			continue
		}

		detail := outcome.Result
		if outcome.Status == core.StatusFailed {
			detail = outcome.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			phase, outcome.Agent, outcome.Provider, outcome.Status,
			truncateString(detail, 50))
	}
	w.Flush()
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `Manage projects in the configured state backend. Tasks, workflows,
and messages executed with --project record their activity under the
project and update per-agent progress.`,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show project status",
	Long:  "Display project state, per-agent progress, and recent activity.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectStatus,
}

var (
	projectDescription string
	projectJSON        bool
)

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectStatusCmd)

	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")
	projectCmd.PersistentFlags().BoolVar(&projectJSON, "json", false, "Output as JSON")
}

func runProjectCreate(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	project, err := eng.CreateProject(ctx, args[0], projectDescription)
	if err != nil {
		return err
	}

	if projectJSON {
		return outputJSON(project)
	}

	fmt.Printf("Created project %q\n", project.Name)
	fmt.Printf("  ID:     %s\n", project.ID)
	fmt.Printf("  Status: %s\n", project.Status)
	fmt.Printf("  Phase:  %s\n", project.Phase)
	return nil
}

func runProjectStatus(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	status, err := eng.ProjectStatus(ctx, args[0])
	if err != nil {
		return err
	}

	if projectJSON {
		return outputJSON(status)
	}

	fmt.Printf("Project:  %s (%s)\n", status.Project.Name, status.Project.ID)
	fmt.Printf("Status:   %s\n", status.Project.Status)
	fmt.Printf("Phase:    %s\n", status.Progress.Phase)
	fmt.Printf("Progress: %d%%\n", status.Progress.Progress)
	if status.ActiveWorkflow != nil {
		fmt.Printf("Workflow: %s (phase %s, %d%%)\n",
			status.ActiveWorkflow.Type, status.ActiveWorkflow.Phase, status.ActiveWorkflow.Progress)
	}

	if len(status.Progress.Agents) > 0 {
		fmt.Println()
		fmt.Println("Agents:")

		names := make([]string, 0, len(status.Progress.Agents))
		for name := range status.Progress.Agents {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  AGENT\tSTATUS\tPROGRESS\tCURRENT TASK")
		for _, name := range names {
			ap := status.Progress.Agents[name]
			task := ap.CurrentTask
			if task == "" {
				task = "-"
			}
			fmt.Fprintf(w, "  %s\t%s\t%d%%\t%s\n", name, ap.Status, ap.Progress, truncateString(task, 40))
		}
		w.Flush()
	}

	if len(status.RecentActivities) > 0 {
		fmt.Println()
		fmt.Println("Recent activity:")

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  TIME\tAGENT\tACTION\tDESCRIPTION")
		for _, entry := range status.RecentActivities {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
				formatTime(entry.CreatedAt), entry.Agent, entry.Action,
				truncateString(entry.Description, 50))
		}
		w.Flush()
	}

	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/adapters/cli"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/router"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect provider CLIs",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers with availability",
	RunE:  runProvidersList,
}

var providersProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe provider CLI availability",
	RunE:  runProvidersProbe,
}

var (
	providersJSON bool
)

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersProbeCmd)

	providersCmd.PersistentFlags().BoolVar(&providersJSON, "json", false, "Output as JSON")
}

// buildRouter wires a provider router from the configured executors.
// No store or directory is needed to inspect providers.
func buildRouter() (*router.Router, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	executors, err := cli.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(executors) == 0 {
		return nil, fmt.Errorf("no providers enabled: enable at least one provider in the configuration")
	}

	return router.New(logger, router.WithExecutors(executors)), nil
}

func runProvidersList(_ *cobra.Command, _ []string) error {
	rt, err := buildRouter()
	if err != nil {
		return err
	}

	ctx := context.Background()
	availability := rt.Availability(ctx)
	providers := rt.Providers()

	if providersJSON {
		type providerView struct {
			ID        core.ProviderID     `json:"id"`
			Label     string              `json:"label"`
			Priority  int                 `json:"priority"`
			Strengths []core.TaskCategory `json:"strengths"`
			Available bool                `json:"available"`
		}
		views := make([]providerView, 0, len(providers))
		for _, p := range providers {
			views = append(views, providerView{
				ID:        p.ID,
				Label:     p.Label,
				Priority:  p.Priority,
				Strengths: p.Strengths,
				Available: availability[p.ID],
			})
		}
		return outputJSON(views)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tPRIORITY\tAVAILABLE\tSTRENGTHS")
	fmt.Fprintln(w, "--\t-----\t--------\t---------\t---------")

	for _, p := range providers {
		available := "no"
		if availability[p.ID] {
			available = "yes"
		}
		strengths := make([]string, 0, len(p.Strengths))
		for _, s := range p.Strengths {
			strengths = append(strengths, string(s))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Label, p.Priority, available, strings.Join(strengths, ", "))
	}
	w.Flush()

	return nil
}

func runProvidersProbe(_ *cobra.Command, _ []string) error {
	rt, err := buildRouter()
	if err != nil {
		return err
	}

	if !providersJSON {
		fmt.Println("Probing provider CLIs...")
		fmt.Println()
	}

	results := rt.ProbeAvailability(context.Background())
	if providersJSON {
		return outputJSON(results)
	}

	for _, p := range rt.Providers() {
		if results[p.ID] {
			fmt.Printf("  ✓ %s\n", p.ID)
		} else {
			fmt.Printf("  ✗ %s\n", p.ID)
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/gripro/internal/router"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect task category routing",
	Long: `Inspect the routing table that maps task categories to providers.
Unknown categories fall back to the general route.`,
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the routing table",
	RunE:  runRoutesList,
}

var routesSetCmd = &cobra.Command{
	Use:   "set <category> <provider>",
	Short: "Override the provider for a task category",
	Long: `Override the provider for a task category and print the resulting
table. Overrides apply per process; use PUT /api/v1/routes/{category} to
change a running server.`,
	Args: cobra.ExactArgs(2),
	RunE: runRoutesSet,
}

var (
	routesJSON bool
)

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.AddCommand(routesListCmd)
	routesCmd.AddCommand(routesSetCmd)

	routesCmd.PersistentFlags().BoolVar(&routesJSON, "json", false, "Output as JSON")
}

func runRoutesList(_ *cobra.Command, _ []string) error {
	rt := router.New(logger)
	return printRoutes(rt.Routes())
}

func runRoutesSet(_ *cobra.Command, args []string) error {
	rt := router.New(logger)
	if err := rt.OverrideRoute(args[0], args[1]); err != nil {
		return err
	}
	return printRoutes(rt.Routes())
}

func printRoutes(routes map[string]string) error {
	if routesJSON {
		return outputJSON(routes)
	}

	categories := make([]string, 0, len(routes))
	for category := range routes {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tPROVIDER")
	fmt.Fprintln(w, "--------\t--------")
	for _, category := range categories {
		fmt.Fprintf(w, "%s\t%s\n", category, routes[category])
	}
	w.Flush()

	return nil
}

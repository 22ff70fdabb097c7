package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <from> <to> <message>",
	Short: "Send a message from one agent to another",
	Long: `Send a message from one agent to another. The receiving agent's
provider is invoked with the message framed as agent-to-agent
communication, and its response is printed.

Example:
  gripro send Primo Fronti "Is the navbar component ready?"`,
	Args: cobra.ExactArgs(3),
	RunE: runSend,
}

var (
	sendProject string
	sendJSON    bool
)

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendProject, "project", "p", "", "Project ID to record activity under")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "Output as JSON")
}

func runSend(_ *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	eng, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer teardownEngine(eng)

	exchange, err := eng.AgentMessage(ctx, sendProject, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	if sendJSON {
		return outputJSON(exchange)
	}

	fmt.Printf("From:   %s\n", exchange.From)
	fmt.Printf("To:     %s\n", exchange.To)
	fmt.Printf("Status: %s\n", exchange.Status)
	if exchange.Response != "" {
		fmt.Println()
		fmt.Println(exchange.Response)
	}
	return nil
}

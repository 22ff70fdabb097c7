package cli

import (
	"context"
	"strings"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// ClaudeAdapter delegates invocations to the Claude CLI.
type ClaudeAdapter struct {
	*BaseAdapter
}

// NewClaudeAdapter creates a Claude adapter.
func NewClaudeAdapter(cfg AdapterConfig, log *logging.Logger) *ClaudeAdapter {
	if cfg.Path == "" {
		cfg.Path = "claude"
	}
	cfg.Name = "claude"
	if log == nil {
		log = logging.NewNop()
	}
	return &ClaudeAdapter{
		BaseAdapter: NewBaseAdapter(cfg, log.With("adapter", "claude")),
	}
}

// ID returns the provider identifier.
func (c *ClaudeAdapter) ID() core.ProviderID {
	return core.ProviderClaude
}

// Invoke runs a prompt through the Claude CLI and returns the response text.
func (c *ClaudeAdapter) Invoke(ctx context.Context, prompt, systemContext string) (string, error) {
	args := c.buildArgs(systemContext)
	args = append(args, prompt)

	result, err := c.ExecuteCommand(ctx, args, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// buildArgs constructs CLI arguments.
func (c *ClaudeAdapter) buildArgs(systemContext string) []string {
	// Print mode for non-interactive use.
	args := []string{"--print"}

	if systemContext != "" {
		args = append(args, "--system-prompt", systemContext)
	}

	args = append(args, c.config.Args...)
	return args
}

// Probe checks whether the Claude CLI is installed.
func (c *ClaudeAdapter) Probe(ctx context.Context) error {
	return c.CheckAvailability(ctx)
}

// Ensure ClaudeAdapter implements core.Executor
var _ core.Executor = (*ClaudeAdapter)(nil)

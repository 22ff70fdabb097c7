package cli

import (
	"context"
	"strings"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// ChatGPTAdapter delegates invocations to the ChatGPT CLI.
type ChatGPTAdapter struct {
	*BaseAdapter
}

// NewChatGPTAdapter creates a ChatGPT adapter.
func NewChatGPTAdapter(cfg AdapterConfig, log *logging.Logger) *ChatGPTAdapter {
	if cfg.Path == "" {
		cfg.Path = "chatgpt"
	}
	cfg.Name = "openai"
	if log == nil {
		log = logging.NewNop()
	}
	return &ChatGPTAdapter{
		BaseAdapter: NewBaseAdapter(cfg, log.With("adapter", "chatgpt")),
	}
}

// ID returns the provider identifier.
func (c *ChatGPTAdapter) ID() core.ProviderID {
	return core.ProviderOpenAI
}

// Invoke runs a prompt through the ChatGPT CLI and returns the response text.
// System context is prepended to the prompt body.
func (c *ChatGPTAdapter) Invoke(ctx context.Context, prompt, systemContext string) (string, error) {
	args := append([]string(nil), c.config.Args...)
	args = append(args, composePrompt(prompt, systemContext))

	result, err := c.ExecuteCommand(ctx, args, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Probe checks whether the ChatGPT CLI is installed.
func (c *ChatGPTAdapter) Probe(ctx context.Context) error {
	return c.CheckAvailability(ctx)
}

// Ensure ChatGPTAdapter implements core.Executor
var _ core.Executor = (*ChatGPTAdapter)(nil)

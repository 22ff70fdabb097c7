package cli

import (
	"context"
	"strings"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// GeminiAdapter delegates invocations to the Gemini CLI.
type GeminiAdapter struct {
	*BaseAdapter
}

// NewGeminiAdapter creates a Gemini adapter.
func NewGeminiAdapter(cfg AdapterConfig, log *logging.Logger) *GeminiAdapter {
	if cfg.Path == "" {
		cfg.Path = "gemini"
	}
	cfg.Name = "gemini"
	if log == nil {
		log = logging.NewNop()
	}
	return &GeminiAdapter{
		BaseAdapter: NewBaseAdapter(cfg, log.With("adapter", "gemini")),
	}
}

// ID returns the provider identifier.
func (g *GeminiAdapter) ID() core.ProviderID {
	return core.ProviderGemini
}

// Invoke runs a prompt through the Gemini CLI and returns the response text.
// The Gemini CLI has no system prompt flag, so system context is prepended
// to the prompt body.
func (g *GeminiAdapter) Invoke(ctx context.Context, prompt, systemContext string) (string, error) {
	args := append([]string(nil), g.config.Args...)
	args = append(args, composePrompt(prompt, systemContext))

	result, err := g.ExecuteCommand(ctx, args, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Probe checks whether the Gemini CLI is installed.
func (g *GeminiAdapter) Probe(ctx context.Context) error {
	return g.CheckAvailability(ctx)
}

// composePrompt folds system context into the prompt for CLIs without a
// dedicated system prompt flag.
func composePrompt(prompt, systemContext string) string {
	if systemContext == "" {
		return prompt
	}
	return systemContext + "\n\n" + prompt
}

// Ensure GeminiAdapter implements core.Executor
var _ core.Executor = (*GeminiAdapter)(nil)

package cli

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// NewExecutor creates the execution adapter for a provider.
func NewExecutor(id core.ProviderID, cfg AdapterConfig, log *logging.Logger) (core.Executor, error) {
	switch id {
	case core.ProviderClaude:
		return NewClaudeAdapter(cfg, log), nil
	case core.ProviderGemini:
		return NewGeminiAdapter(cfg, log), nil
	case core.ProviderOpenAI:
		return NewChatGPTAdapter(cfg, log), nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidProvider,
			fmt.Sprintf("no adapter for provider %q", id))
	}
}

// FromConfig builds execution adapters for every enabled provider in the
// configuration. Disabled providers get no adapter, which the router
// reports as an unwired integration.
func FromConfig(cfg *config.Config, log *logging.Logger) (map[core.ProviderID]core.Executor, error) {
	executors := make(map[core.ProviderID]core.Executor)

	for _, name := range cfg.Providers.EnabledNames() {
		pcfg, _ := cfg.Providers.For(name)

		timeout, err := pcfg.TimeoutDuration(DefaultTimeout)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}

		id := core.ProviderID(name)
		executor, err := NewExecutor(id, AdapterConfig{
			Path:    pcfg.Path,
			Args:    pcfg.Args,
			Timeout: timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		executors[id] = executor
	}

	return executors, nil
}

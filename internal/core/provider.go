package core

import (
	"context"
	"time"
)

// ProviderID identifies one computation provider backend.
type ProviderID string

const (
	ProviderClaude ProviderID = "claude"
	ProviderGemini ProviderID = "gemini"
	ProviderOpenAI ProviderID = "openai"
)

// AllProviders returns every provider identifier.
func AllProviders() []ProviderID {
	return []ProviderID{ProviderClaude, ProviderGemini, ProviderOpenAI}
}

// Valid reports whether the identifier is a known provider.
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderClaude, ProviderGemini, ProviderOpenAI:
		return true
	}
	return false
}

// ProbeFunc reports whether a provider backend can accept work.
// A nil error means available. Probes are injected so tests can fake
// availability without touching the host system.
type ProbeFunc func(ctx context.Context) error

// ProviderDefinition is the static description of one provider.
type ProviderDefinition struct {
	ID          ProviderID
	Label       string
	Strengths   []TaskCategory
	Priority    int
	Executables []string // candidate executable names for the default probe
}

// DefaultProviders returns the built-in provider set.
func DefaultProviders() map[ProviderID]ProviderDefinition {
	return map[ProviderID]ProviderDefinition{
		ProviderClaude: {
			ID:          ProviderClaude,
			Label:       "Claude",
			Strengths:   []TaskCategory{TaskCodeGeneration, TaskAnalysis, TaskSecurity},
			Priority:    1,
			Executables: []string{"claude"},
		},
		ProviderGemini: {
			ID:          ProviderGemini,
			Label:       "Gemini",
			Strengths:   []TaskCategory{TaskQATesting, TaskContentWriting, TaskDeployment},
			Priority:    2,
			Executables: []string{"gemini"},
		},
		ProviderOpenAI: {
			ID:          ProviderOpenAI,
			Label:       "ChatGPT",
			Strengths:   []TaskCategory{TaskGeneral},
			Priority:    3,
			Executables: []string{"chatgpt"},
		},
	}
}

// RoutingTable maps task categories to their preferred provider.
type RoutingTable map[TaskCategory]ProviderID

// Clone returns an independent copy of the table.
func (t RoutingTable) Clone() RoutingTable {
	out := make(RoutingTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// DefaultRouting returns the built-in category preferences.
func DefaultRouting() RoutingTable {
	return RoutingTable{
		TaskCodeGeneration: ProviderClaude,
		TaskQATesting:      ProviderGemini,
		TaskContentWriting: ProviderGemini,
		TaskAnalysis:       ProviderClaude,
		TaskSecurity:       ProviderClaude,
		TaskDeployment:     ProviderGemini,
		TaskGeneral:        ProviderClaude,
	}
}

// FallbackOrder returns the global trust ranking used when a preferred
// provider is unavailable. Kept separate from the routing table: the
// table expresses per-category fit, the order expresses overall trust.
func FallbackOrder() []ProviderID {
	return []ProviderID{ProviderClaude, ProviderGemini, ProviderOpenAI}
}

// InvokeResult is the envelope for one provider invocation. Failures are
// data here, not errors: a failed delegate call yields Success=false with
// the failure text in Error.
type InvokeResult struct {
	Success  bool          `json:"success"`
	Content  string        `json:"content"`
	Provider ProviderID    `json:"provider"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

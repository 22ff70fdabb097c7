package core

import (
	"fmt"
	"strings"
)

// RoleCategory classifies an agent's specialty within the roster.
type RoleCategory string

const (
	RoleCoordinator   RoleCategory = "coordinator"
	RoleFrontend      RoleCategory = "frontend"
	RoleBackend       RoleCategory = "backend"
	RoleSecurity      RoleCategory = "security"
	RoleQA            RoleCategory = "qa"
	RoleDevOps        RoleCategory = "devops"
	RoleDocumentation RoleCategory = "documentation"
	RoleSupervisor    RoleCategory = "supervisor"
)

// AllRoles returns every role category.
func AllRoles() []RoleCategory {
	return []RoleCategory{
		RoleCoordinator,
		RoleFrontend,
		RoleBackend,
		RoleSecurity,
		RoleQA,
		RoleDevOps,
		RoleDocumentation,
		RoleSupervisor,
	}
}

// Valid reports whether the role is one of the known categories.
func (r RoleCategory) Valid() bool {
	switch r {
	case RoleCoordinator, RoleFrontend, RoleBackend, RoleSecurity,
		RoleQA, RoleDevOps, RoleDocumentation, RoleSupervisor:
		return true
	}
	return false
}

// AgentDefinition describes one named agent in the directory.
// Name is the stable key; Alias is the unique human-facing short name.
type AgentDefinition struct {
	Name         string                 `json:"name" yaml:"name"`
	Alias        string                 `json:"alias" yaml:"alias"`
	Role         RoleCategory           `json:"role" yaml:"role"`
	PromptFile   string                 `json:"prompt_file" yaml:"prompt_file"`
	Config       map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
	Active       bool                   `json:"active" yaml:"active"`
	Dependencies []string               `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Validate checks the required registration fields.
func (a *AgentDefinition) Validate() error {
	var missing []string
	if a.Alias == "" {
		missing = append(missing, "alias")
	}
	if a.Role == "" {
		missing = append(missing, "role")
	}
	if a.PromptFile == "" {
		missing = append(missing, "prompt_file")
	}
	if len(missing) > 0 {
		return ErrValidation(CodeMissingFields,
			fmt.Sprintf("agent definition missing required fields: %s", strings.Join(missing, ", ")))
	}
	if !a.Role.Valid() {
		return ErrValidation(CodeInvalidRole,
			fmt.Sprintf("unknown role category %q", a.Role))
	}
	return nil
}

// ConfigString returns a string-valued config entry, or fallback when absent.
func (a *AgentDefinition) ConfigString(key, fallback string) string {
	if a.Config == nil {
		return fallback
	}
	if v, ok := a.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

package api

import (
	"net/http"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// AgentResponse is the API representation of a registered agent.
type AgentResponse struct {
	Name         string   `json:"name"`
	Alias        string   `json:"alias"`
	Role         string   `json:"role"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	PromptFile   string   `json:"prompt_file"`
	Active       bool     `json:"active"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// AgentValidationResponse reports per-agent registry validation verdicts.
type AgentValidationResponse struct {
	Results  map[string]bool `json:"results"`
	AllValid bool            `json:"all_valid"`
}

// handleListAgents returns all registered agents sorted by name.
func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	dir := s.engine.Directory()
	if dir == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	agents := dir.List()
	response := make([]AgentResponse, 0, len(agents))
	for _, agent := range agents {
		response = append(response, agentToResponse(agent))
	}

	s.respondJSON(w, http.StatusOK, response)
}

// handleValidateAgents checks every registered agent and returns the
// per-agent verdicts.
func (s *Server) handleValidateAgents(w http.ResponseWriter, _ *http.Request) {
	dir := s.engine.Directory()
	if dir == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	results := dir.ValidateAll()
	allValid := true
	for _, ok := range results {
		if !ok {
			allValid = false
			break
		}
	}

	s.respondJSON(w, http.StatusOK, AgentValidationResponse{
		Results:  results,
		AllValid: allValid,
	})
}

// agentToResponse converts an agent definition to its API representation.
// Title and description come from the agent's config map when present.
func agentToResponse(agent *core.AgentDefinition) AgentResponse {
	return AgentResponse{
		Name:         agent.Name,
		Alias:        agent.Alias,
		Role:         string(agent.Role),
		Title:        agent.ConfigString("role", ""),
		Description:  agent.ConfigString("description", ""),
		PromptFile:   agent.PromptFile,
		Active:       agent.Active,
		Dependencies: agent.Dependencies,
	}
}

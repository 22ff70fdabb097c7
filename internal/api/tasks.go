package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// ExecuteTaskRequest is the request body for executing a single task.
type ExecuteTaskRequest struct {
	ProjectID    string `json:"project_id,omitempty"`
	Agent        string `json:"agent"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// TaskOutcomeResponse is the API representation of a task outcome.
type TaskOutcomeResponse struct {
	Status    string            `json:"status"`
	Result    string            `json:"result,omitempty"`
	Agent     string            `json:"agent"`
	Provider  string            `json:"provider"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// handleExecuteTask runs one task through a named agent.
func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	var req ExecuteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Agent == "" {
		s.respondError(w, http.StatusBadRequest, "agent is required")
		return
	}
	if req.Description == "" {
		s.respondError(w, http.StatusBadRequest, "description is required")
		return
	}

	outcome, err := s.engine.ExecuteTask(r.Context(), req.ProjectID, req.Agent, req.Description, req.SystemPrompt)
	if err != nil {
		s.respondEngineError(w, err, "failed to execute task")
		return
	}

	s.respondJSON(w, http.StatusOK, outcomeToResponse(outcome))
}

// outcomeToResponse converts a task outcome to its API representation.
func outcomeToResponse(outcome *core.TaskOutcome) TaskOutcomeResponse {
	return TaskOutcomeResponse{
		Status:    string(outcome.Status),
		Result:    outcome.Result,
		Agent:     outcome.Agent,
		Provider:  string(outcome.Provider),
		Timestamp: outcome.Timestamp,
		Error:     outcome.Error,
		Metadata:  outcome.Metadata,
	}
}

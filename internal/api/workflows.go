package api

import (
	"encoding/json"
	"net/http"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// RunWorkflowRequest is the request body for running a workflow template.
type RunWorkflowRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Type      string `json:"type"`
	Context   string `json:"context,omitempty"`
}

// WorkflowResultResponse is the API representation of a finished run.
type WorkflowResultResponse struct {
	ProjectID string                         `json:"project_id"`
	Type      string                         `json:"type"`
	Phases    []string                       `json:"phases"`
	Outcomes  map[string]TaskOutcomeResponse `json:"outcomes"`
	Completed []string                       `json:"completed"`
	Progress  int                            `json:"progress"`
}

// handleRunWorkflow executes a workflow template phase by phase and returns
// the aggregate result. The run is synchronous; long templates are expected
// to take a while, which is why in-flight progress is also exposed through
// the project status endpoint.
func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	var req RunWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type == "" {
		s.respondError(w, http.StatusBadRequest, "type is required")
		return
	}
	if _, err := core.ParseWorkflowType(req.Type); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := s.engine.RunWorkflow(r.Context(), req.ProjectID, req.Type, req.Context)
	if err != nil {
		s.respondEngineError(w, err, "failed to run workflow")
		return
	}

	s.respondJSON(w, http.StatusOK, resultToResponse(result))
}

// resultToResponse converts a workflow result to its API representation.
func resultToResponse(result *core.WorkflowResult) WorkflowResultResponse {
	outcomes := make(map[string]TaskOutcomeResponse, len(result.Outcomes))
	for phase, outcome := range result.Outcomes {
		outcomes[phase] = outcomeToResponse(outcome)
	}
	return WorkflowResultResponse{
		ProjectID: result.ProjectID,
		Type:      string(result.Type),
		Phases:    result.Phases,
		Outcomes:  outcomes,
		Completed: result.Completed,
		Progress:  result.Progress,
	}
}

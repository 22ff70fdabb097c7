package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// handleCreateProject creates a new project record.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if s.engine.Store() == nil {
		s.respondError(w, http.StatusServiceUnavailable, "project storage not configured")
		return
	}

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := s.engine.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondEngineError(w, err, "failed to create project")
		return
	}

	s.respondJSON(w, http.StatusCreated, project)
}

// handleGetProject returns a project record by ID.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	if store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "project storage not configured")
		return
	}

	projectID := chi.URLParam(r, "projectID")

	project, err := store.GetProject(r.Context(), projectID)
	if err != nil {
		s.respondEngineError(w, err, "failed to get project")
		return
	}

	s.respondJSON(w, http.StatusOK, project)
}

// handleProjectStatus returns the aggregate project view: record, progress,
// recent activities, and any in-flight workflow run.
func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	if s.engine.Store() == nil {
		s.respondError(w, http.StatusServiceUnavailable, "project storage not configured")
		return
	}

	projectID := chi.URLParam(r, "projectID")

	status, err := s.engine.ProjectStatus(r.Context(), projectID)
	if err != nil {
		s.respondEngineError(w, err, "failed to get project status")
		return
	}

	s.respondJSON(w, http.StatusOK, status)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// ProviderResponse is the API representation of one provider backend.
type ProviderResponse struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Priority  int      `json:"priority"`
	Strengths []string `json:"strengths"`
	Available bool     `json:"available"`
}

// OverrideRouteRequest is the request body for overriding a task route.
type OverrideRouteRequest struct {
	Provider string `json:"provider"`
}

// handleListProviders returns the provider backends in priority order with
// their cached availability.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	rt := s.engine.Router()
	if rt == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	avail := rt.Availability(r.Context())
	defs := rt.Providers()

	response := make([]ProviderResponse, 0, len(defs))
	for _, def := range defs {
		strengths := make([]string, 0, len(def.Strengths))
		for _, cat := range def.Strengths {
			strengths = append(strengths, string(cat))
		}
		response = append(response, ProviderResponse{
			ID:        string(def.ID),
			Label:     def.Label,
			Priority:  def.Priority,
			Strengths: strengths,
			Available: avail[def.ID],
		})
	}

	s.respondJSON(w, http.StatusOK, response)
}

// handleProbeProviders force-refreshes provider liveness and returns the
// fresh view.
func (s *Server) handleProbeProviders(w http.ResponseWriter, r *http.Request) {
	rt := s.engine.Router()
	if rt == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	fresh := rt.ProbeAvailability(r.Context())

	response := make(map[string]bool, len(fresh))
	for id, ok := range fresh {
		response[string(id)] = ok
	}

	s.respondJSON(w, http.StatusOK, response)
}

// handleListRoutes returns the current category-to-provider routing table.
func (s *Server) handleListRoutes(w http.ResponseWriter, _ *http.Request) {
	rt := s.engine.Router()
	if rt == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	s.respondJSON(w, http.StatusOK, rt.Routes())
}

// handleOverrideRoute replaces the preferred provider for one task category
// and returns the updated routing table.
func (s *Server) handleOverrideRoute(w http.ResponseWriter, r *http.Request) {
	rt := s.engine.Router()
	if rt == nil {
		s.respondEngineError(w, core.ErrNotInitialized("engine"), "engine not ready")
		return
	}

	category := chi.URLParam(r, "category")

	var req OverrideRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Provider == "" {
		s.respondError(w, http.StatusBadRequest, "provider is required")
		return
	}

	if err := rt.OverrideRoute(category, req.Provider); err != nil {
		s.respondEngineError(w, err, "failed to override route")
		return
	}

	s.respondJSON(w, http.StatusOK, rt.Routes())
}
